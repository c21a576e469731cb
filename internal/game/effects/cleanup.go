package effects

// Duration represents how long a continuous or replacement effect lasts.
type Duration string

const (
	// DurationEndOfTurn expires during the cleanup step.
	DurationEndOfTurn Duration = "EndOfTurn"

	// DurationEndOfCombat expires when combat ends.
	DurationEndOfCombat Duration = "EndOfCombat"

	// DurationWhileOnBattlefield lasts while the source is on the battlefield.
	DurationWhileOnBattlefield Duration = "WhileOnBattlefield"

	// DurationOneShot is consumed the first time it applies.
	DurationOneShot Duration = "OneShot"

	// DurationPermanent lasts indefinitely.
	DurationPermanent Duration = "Permanent"
)

// CleanupEndOfTurn removes continuous effects that expire at end of turn.
// Called during the cleanup step.
func CleanupEndOfTurn(engine *LayerEngine) []string {
	if engine == nil {
		return nil
	}
	return engine.RemoveExpired(DurationEndOfTurn)
}

// CleanupEndOfCombat removes continuous effects that expire when combat ends.
func CleanupEndOfCombat(engine *LayerEngine) []string {
	if engine == nil {
		return nil
	}
	return engine.RemoveExpired(DurationEndOfCombat)
}

// CleanupSourceLeft removes continuous effects tied to a source that left the
// battlefield.
func CleanupSourceLeft(engine *LayerEngine, sourceID string) {
	if engine == nil || sourceID == "" {
		return
	}
	engine.mu.Lock()
	defer engine.mu.Unlock()
	for id, reg := range engine.effects {
		if reg.effect.SourceID() == sourceID && reg.effect.Duration() == DurationWhileOnBattlefield {
			delete(engine.effects, id)
		}
	}
}
