package game

// DecisionKind names the kinds of decisions the engine can ask for. The
// engine suspends instead of blocking: Advance returns a DecisionRequest and
// the caller answers it with SubmitDecision.
type DecisionKind string

const (
	// DecisionChooseAction asks the priority holder to act or pass.
	DecisionChooseAction DecisionKind = "choose_action"
	// DecisionChooseTargets asks for targets while casting.
	DecisionChooseTargets DecisionKind = "choose_targets"
	// DecisionPayCost asks the caster to confirm or abort cost payment.
	DecisionPayCost DecisionKind = "pay_cost"
	// DecisionDeclareAttackers asks the active player for attackers.
	DecisionDeclareAttackers DecisionKind = "declare_attackers"
	// DecisionDeclareBlockers asks a defending player for blockers.
	DecisionDeclareBlockers DecisionKind = "declare_blockers"
	// DecisionOrderTriggers asks a player to order their simultaneous
	// triggers before they go on the stack.
	DecisionOrderTriggers DecisionKind = "order_triggers"
	// DecisionMakeChoice covers yes/no and mode choices, including mulligans.
	DecisionMakeChoice DecisionKind = "make_choice"
)

// ActionOption is one legal action offered by a choose_action decision.
type ActionOption struct {
	// Kind is one of: pass, play_land, cast_spell, activate_ability, concede.
	Kind string `json:"kind"`
	// ObjectID is the card or permanent the action uses, if any.
	ObjectID string `json:"object_id,omitempty"`
	// AbilityIndex selects which ability of the object to activate.
	AbilityIndex int `json:"ability_index,omitempty"`
	// Description is human-readable, e.g. "cast Lightning Strike".
	Description string `json:"description,omitempty"`
}

// TargetPrompt describes one targeting requirement awaiting selection.
type TargetPrompt struct {
	Description string   `json:"description"`
	Min         int      `json:"min"`
	Max         int      `json:"max"`
	Legal       []string `json:"legal"`
}

// TriggerPrompt describes one pending trigger awaiting ordering.
type TriggerPrompt struct {
	ItemID      string `json:"item_id"`
	Description string `json:"description"`
}

// DecisionRequest is what the engine needs answered before it can continue.
type DecisionRequest struct {
	ID       string       `json:"id"`
	GameID   string       `json:"game_id"`
	PlayerID string       `json:"player_id"`
	Kind     DecisionKind `json:"kind"`

	// Actions is set for choose_action.
	Actions []ActionOption `json:"actions,omitempty"`
	// Targets is set for choose_targets, one prompt per requirement.
	Targets []TargetPrompt `json:"targets,omitempty"`
	// Triggers is set for order_triggers.
	Triggers []TriggerPrompt `json:"triggers,omitempty"`
	// Choices is set for make_choice, e.g. ["keep", "mulligan"].
	Choices []string `json:"choices,omitempty"`
	// Prompt is the human-readable question.
	Prompt string `json:"prompt,omitempty"`
	// Attackers lists legal attacker IDs for declare_attackers; Blockers
	// maps attacker ID to legal blocker IDs for declare_blockers.
	Attackers []string            `json:"attackers,omitempty"`
	Blockers  map[string][]string `json:"blockers,omitempty"`
	// HasX marks that the answer must carry an X value for an {X} cost.
	HasX bool `json:"has_x,omitempty"`
}

// Decision is a player's answer to a DecisionRequest.
type Decision struct {
	RequestID string `json:"request_id"`
	PlayerID  string `json:"player_id"`

	// Action answers choose_action.
	Action *ActionOption `json:"action,omitempty"`
	// Targets answers choose_targets: one list per requirement, in order.
	Targets [][]string `json:"targets,omitempty"`
	// Pay answers pay_cost; false aborts the cast with no state change.
	Pay    bool `json:"pay,omitempty"`
	XValue int  `json:"x_value,omitempty"`
	// Attackers answers declare_attackers: attacker ID to defending player.
	Attackers map[string]string `json:"attackers,omitempty"`
	// Blocks answers declare_blockers: blocker ID to attacker ID.
	Blocks map[string]string `json:"blocks,omitempty"`
	// Order answers order_triggers: item IDs in desired stack order,
	// first entry goes on the stack first (resolves last).
	Order []string `json:"order,omitempty"`
	// Choice answers make_choice.
	Choice string `json:"choice,omitempty"`
}
