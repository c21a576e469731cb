package effects

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ChristianIvicevic/sorcery/internal/game/rules"
)

// ReplacementManager tracks active replacement and prevention effects and
// applies them to events before the events happen.
//
// Application order is deterministic: self-replacement effects first, then
// remaining effects in registration timestamp order. Each effect gets one
// opportunity per event; an effect that completely replaces the event ends
// the chain.
type ReplacementManager struct {
	mu         sync.Mutex
	effects    map[string]ReplacementEffect
	timestamps map[string]uint64
	clock      uint64
	logger     *zap.Logger
}

// NewReplacementManager creates a replacement effect manager.
func NewReplacementManager(logger *zap.Logger) *ReplacementManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplacementManager{
		effects:    make(map[string]ReplacementEffect),
		timestamps: make(map[string]uint64),
		logger:     logger,
	}
}

// AddEffect registers a replacement effect.
func (rm *ReplacementManager) AddEffect(effect ReplacementEffect) {
	if effect == nil {
		return
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.clock++
	rm.effects[effect.ID()] = effect
	rm.timestamps[effect.ID()] = rm.clock

	rm.logger.Debug("added replacement effect",
		zap.String("effect", describeEffect(effect)),
		zap.String("source_id", effect.SourceID()),
		zap.Bool("self_replacement", effect.IsSelfReplacement()))
}

// RemoveEffect removes a replacement effect by ID.
func (rm *ReplacementManager) RemoveEffect(effectID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.effects, effectID)
	delete(rm.timestamps, effectID)
}

// RemoveBySource removes every effect created by the given source.
func (rm *ReplacementManager) RemoveBySource(sourceID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for id, effect := range rm.effects {
		if effect.SourceID() == sourceID {
			delete(rm.effects, id)
			delete(rm.timestamps, id)
		}
	}
}

// CleanupExpired removes effects whose duration matches the given one.
func (rm *ReplacementManager) CleanupExpired(duration Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for id, effect := range rm.effects {
		if effect.Duration() == duration {
			delete(rm.effects, id)
			delete(rm.timestamps, id)
		}
	}
}

// EffectCount returns the number of registered effects.
func (rm *ReplacementManager) EffectCount() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.effects)
}

// ReplaceEvent applies all applicable replacement effects to an event and
// returns the modified event plus whether the event still happens at all.
func (rm *ReplacementManager) ReplaceEvent(event rules.Event) (rules.Event, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	applied := make(map[string]bool)
	for _, effectID := range event.AppliedEffects {
		applied[effectID] = true
	}

	happens := true
	const maxIterations = 100
	for iteration := 0; iteration < maxIterations; iteration++ {
		chosen := rm.pickNext(event, applied)
		if chosen == nil {
			return event, happens
		}

		replaced, complete := chosen.ReplaceEvent(event)
		event = replaced
		applied[chosen.ID()] = true
		event.AppliedEffects = append(event.AppliedEffects, chosen.ID())

		if chosen.Duration() == DurationOneShot {
			delete(rm.effects, chosen.ID())
			delete(rm.timestamps, chosen.ID())
		}

		rm.logger.Debug("applied replacement effect",
			zap.String("effect", describeEffect(chosen)),
			zap.String("event_type", string(event.Type)),
			zap.Bool("complete", complete))

		if complete {
			// A complete replacement with amount 0 means the event was
			// prevented entirely.
			if event.Amount == 0 {
				happens = false
			}
			return event, happens
		}
	}

	rm.logger.Error("replacement chain exceeded iteration limit",
		zap.String("event_type", string(event.Type)))
	return event, happens
}

// pickNext returns the next effect to apply: self-replacement effects take
// precedence, then the lowest registration timestamp.
func (rm *ReplacementManager) pickNext(event rules.Event, applied map[string]bool) ReplacementEffect {
	var best ReplacementEffect
	var bestStamp uint64
	bestSelf := false

	for id, effect := range rm.effects {
		if applied[id] {
			continue
		}
		if !effect.ChecksEventType(event.Type) || !effect.Applies(event) {
			continue
		}
		stamp := rm.timestamps[id]
		self := effect.IsSelfReplacement()
		switch {
		case best == nil,
			self && !bestSelf,
			self == bestSelf && stamp < bestStamp:
			best, bestStamp, bestSelf = effect, stamp, self
		}
	}
	return best
}
