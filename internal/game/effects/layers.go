package effects

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Layer corresponds to the comprehensive rules layers for continuous effects.
type Layer int

const (
	LayerCopy Layer = 1 + iota
	LayerControl
	LayerText
	LayerType
	LayerColor
	LayerAbility
	LayerPowerToughness
)

var layerOrder = []Layer{
	LayerCopy,
	LayerControl,
	LayerText,
	LayerType,
	LayerColor,
	LayerAbility,
	LayerPowerToughness,
}

// Sublayer orders effects within the power/toughness layer. Effects in other
// layers leave it at SublayerNone.
type Sublayer int

const (
	SublayerNone Sublayer = iota
	SublayerCharacteristicDefining
	SublayerSetPT
	SublayerModifyPT
	SublayerCounters
	SublayerSwitchPT
)

// Characteristics holds the mutable characteristics of an object while the
// layer engine evaluates continuous effects against it. The engine starts
// from printed values and applies effects layer by layer.
type Characteristics struct {
	ObjectID     string
	ControllerID string
	Name         string
	Types        []string
	Subtypes     []string
	Colors       []string
	Abilities    []string
	Power        int
	Toughness    int
	HasPT        bool
}

// Copy returns a deep copy of the characteristics.
func (c *Characteristics) Copy() *Characteristics {
	cpy := *c
	cpy.Types = append([]string(nil), c.Types...)
	cpy.Subtypes = append([]string(nil), c.Subtypes...)
	cpy.Colors = append([]string(nil), c.Colors...)
	cpy.Abilities = append([]string(nil), c.Abilities...)
	return &cpy
}

// HasType reports whether the object currently has the given card type.
func (c *Characteristics) HasType(typeName string) bool {
	return containsFold(c.Types, typeName)
}

// HasSubtype reports whether the object currently has the given subtype.
func (c *Characteristics) HasSubtype(subtype string) bool {
	return containsFold(c.Subtypes, subtype)
}

// HasAbility reports whether the object currently has the given ability.
func (c *Characteristics) HasAbility(ability string) bool {
	return containsFold(c.Abilities, ability)
}

// HasColor reports whether the object currently has the given color.
func (c *Characteristics) HasColor(color string) bool {
	return containsFold(c.Colors, color)
}

func containsFold(list []string, want string) bool {
	want = strings.TrimSpace(want)
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), want) {
			return true
		}
	}
	return false
}

// ContinuousEffect defines behaviour for modifying object characteristics.
// Effects apply in layer order; within a layer, dependency order first and
// then timestamp order.
type ContinuousEffect interface {
	ID() string
	SourceID() string
	Layer() Layer
	Sublayer() Sublayer
	Duration() Duration
	AppliesTo(*Characteristics) bool
	Apply(*Characteristics)
}

type registeredEffect struct {
	effect    ContinuousEffect
	timestamp uint64
}

// LayerEngine manages registration and evaluation of continuous effects.
// Every registered effect receives a timestamp from a monotonically
// increasing counter; recomputation is pull-based, callers ask for an
// object's current characteristics whenever they need them.
type LayerEngine struct {
	mu      sync.RWMutex
	effects map[string]*registeredEffect
	clock   uint64
}

// NewLayerEngine constructs an empty layer engine.
func NewLayerEngine() *LayerEngine {
	return &LayerEngine{
		effects: make(map[string]*registeredEffect),
	}
}

// AddEffect registers a continuous effect, stamps it with the next timestamp
// and returns its identifier.
func (le *LayerEngine) AddEffect(effect ContinuousEffect) string {
	if effect == nil {
		return ""
	}
	le.mu.Lock()
	defer le.mu.Unlock()

	id := effect.ID()
	if id == "" {
		id = uuid.NewString()
	}
	le.clock++
	le.effects[id] = &registeredEffect{effect: effect, timestamp: le.clock}
	return id
}

// RemoveEffect removes a registered effect by ID.
func (le *LayerEngine) RemoveEffect(id string) {
	if id == "" {
		return
	}
	le.mu.Lock()
	defer le.mu.Unlock()
	delete(le.effects, id)
}

// RemoveBySource removes every effect created by the given source.
func (le *LayerEngine) RemoveBySource(sourceID string) {
	if sourceID == "" {
		return
	}
	le.mu.Lock()
	defer le.mu.Unlock()
	for id, reg := range le.effects {
		if reg.effect.SourceID() == sourceID {
			delete(le.effects, id)
		}
	}
}

// RemoveExpired removes every effect whose duration matches the given one.
func (le *LayerEngine) RemoveExpired(duration Duration) []string {
	le.mu.Lock()
	defer le.mu.Unlock()
	var removed []string
	for id, reg := range le.effects {
		if reg.effect.Duration() == duration {
			delete(le.effects, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// EffectCount returns the number of registered effects.
func (le *LayerEngine) EffectCount() int {
	le.mu.RLock()
	defer le.mu.RUnlock()
	return len(le.effects)
}

// Compute evaluates all continuous effects against the printed
// characteristics and returns the resulting current characteristics. The
// input is not modified.
func (le *LayerEngine) Compute(printed *Characteristics) *Characteristics {
	if printed == nil {
		return nil
	}
	le.mu.RLock()
	defer le.mu.RUnlock()

	current := printed.Copy()
	for _, layer := range layerOrder {
		for _, reg := range le.orderedLayer(layer, current) {
			if reg.effect.AppliesTo(current) {
				reg.effect.Apply(current)
			}
		}
	}
	return current
}

// orderedLayer returns the effects of one layer in application order:
// sublayer first, then dependency order, then timestamp.
func (le *LayerEngine) orderedLayer(layer Layer, snapshot *Characteristics) []*registeredEffect {
	var regs []*registeredEffect
	for _, reg := range le.effects {
		if reg.effect.Layer() == layer {
			regs = append(regs, reg)
		}
	}
	if len(regs) == 0 {
		return nil
	}

	sort.Slice(regs, func(i, j int) bool {
		si, sj := regs[i].effect.Sublayer(), regs[j].effect.Sublayer()
		if si != sj {
			return si < sj
		}
		return regs[i].timestamp < regs[j].timestamp
	})
	if len(regs) == 1 {
		return regs
	}
	return orderByDependency(regs, snapshot)
}

// orderByDependency reorders effects within a layer so that effects another
// effect depends on apply first. Effect B depends on effect A when applying A
// changes whether B applies to the object. Detected dependencies override
// timestamp order; cycles fall back to timestamp order.
func orderByDependency(regs []*registeredEffect, snapshot *Characteristics) []*registeredEffect {
	n := len(regs)
	// dependsOn[b][a] is true when regs[b] depends on regs[a].
	dependsOn := make([][]bool, n)
	for b := range dependsOn {
		dependsOn[b] = make([]bool, n)
	}

	for a := 0; a < n; a++ {
		afterA := snapshot.Copy()
		if regs[a].effect.AppliesTo(afterA) {
			regs[a].effect.Apply(afterA)
		}
		for b := 0; b < n; b++ {
			if a == b || regs[b].effect.Sublayer() != regs[a].effect.Sublayer() {
				continue
			}
			before := regs[b].effect.AppliesTo(snapshot)
			after := regs[b].effect.AppliesTo(afterA)
			if before != after {
				dependsOn[b][a] = true
			}
		}
	}

	// Kahn's algorithm, preferring the lowest timestamp among ready effects.
	indegree := make([]int, n)
	for b := 0; b < n; b++ {
		for a := 0; a < n; a++ {
			if dependsOn[b][a] {
				indegree[b]++
			}
		}
	}

	ordered := make([]*registeredEffect, 0, n)
	done := make([]bool, n)
	for len(ordered) < n {
		pick := -1
		for i := 0; i < n; i++ {
			if done[i] || indegree[i] != 0 {
				continue
			}
			if pick == -1 || lessByRank(regs[i], regs[pick]) {
				pick = i
			}
		}
		if pick == -1 {
			// Dependency cycle: remaining effects apply in timestamp order.
			var rest []*registeredEffect
			for i := 0; i < n; i++ {
				if !done[i] {
					rest = append(rest, regs[i])
				}
			}
			sort.Slice(rest, func(i, j int) bool { return lessByRank(rest[i], rest[j]) })
			ordered = append(ordered, rest...)
			break
		}
		done[pick] = true
		ordered = append(ordered, regs[pick])
		for b := 0; b < n; b++ {
			if dependsOn[b][pick] {
				indegree[b]--
			}
		}
	}
	return ordered
}

func lessByRank(a, b *registeredEffect) bool {
	if sa, sb := a.effect.Sublayer(), b.effect.Sublayer(); sa != sb {
		return sa < sb
	}
	return a.timestamp < b.timestamp
}
