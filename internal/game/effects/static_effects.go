package effects

import (
	"strings"

	"github.com/google/uuid"
)

// Filter selects which objects a continuous effect applies to.
type Filter func(*Characteristics) bool

// FilterObject matches a single object by ID.
func FilterObject(objectID string) Filter {
	return func(c *Characteristics) bool { return c.ObjectID == objectID }
}

// FilterType matches objects with the given card type.
func FilterType(typeName string) Filter {
	return func(c *Characteristics) bool { return c.HasType(typeName) }
}

// FilterSubtype matches objects with the given subtype.
func FilterSubtype(subtype string) Filter {
	return func(c *Characteristics) bool { return c.HasSubtype(subtype) }
}

// FilterControlledBy matches objects controlled by the given player.
func FilterControlledBy(playerID string) Filter {
	return func(c *Characteristics) bool { return c.ControllerID == playerID }
}

// FilterAnd matches when every given filter matches.
func FilterAnd(filters ...Filter) Filter {
	return func(c *Characteristics) bool {
		for _, f := range filters {
			if !f(c) {
				return false
			}
		}
		return true
	}
}

// baseEffect carries the fields common to every continuous effect.
type baseEffect struct {
	id       string
	sourceID string
	layer    Layer
	sublayer Sublayer
	duration Duration
	filter   Filter
}

func newBaseEffect(sourceID string, layer Layer, sublayer Sublayer, duration Duration, filter Filter) baseEffect {
	return baseEffect{
		id:       uuid.NewString(),
		sourceID: strings.TrimSpace(sourceID),
		layer:    layer,
		sublayer: sublayer,
		duration: duration,
		filter:   filter,
	}
}

func (e *baseEffect) ID() string         { return e.id }
func (e *baseEffect) SourceID() string   { return e.sourceID }
func (e *baseEffect) Layer() Layer       { return e.layer }
func (e *baseEffect) Sublayer() Sublayer { return e.sublayer }
func (e *baseEffect) Duration() Duration { return e.duration }

func (e *baseEffect) AppliesTo(c *Characteristics) bool {
	if e.filter == nil {
		return false
	}
	return e.filter(c)
}

// BoostEffect modifies power and toughness without setting them, e.g. +3/+3.
type BoostEffect struct {
	baseEffect
	Power     int
	Toughness int
}

// NewBoostEffect creates a power/toughness modification effect.
func NewBoostEffect(sourceID string, filter Filter, power, toughness int, duration Duration) *BoostEffect {
	return &BoostEffect{
		baseEffect: newBaseEffect(sourceID, LayerPowerToughness, SublayerModifyPT, duration, filter),
		Power:      power,
		Toughness:  toughness,
	}
}

func (e *BoostEffect) Apply(c *Characteristics) {
	c.Power += e.Power
	c.Toughness += e.Toughness
}

// SetPowerToughnessEffect sets base power and toughness, e.g. "becomes 0/1".
type SetPowerToughnessEffect struct {
	baseEffect
	Power     int
	Toughness int
}

// NewSetPowerToughnessEffect creates an effect that sets power and toughness
// to specific values. Later modifications still apply on top.
func NewSetPowerToughnessEffect(sourceID string, filter Filter, power, toughness int, duration Duration) *SetPowerToughnessEffect {
	return &SetPowerToughnessEffect{
		baseEffect: newBaseEffect(sourceID, LayerPowerToughness, SublayerSetPT, duration, filter),
		Power:      power,
		Toughness:  toughness,
	}
}

func (e *SetPowerToughnessEffect) Apply(c *Characteristics) {
	c.Power = e.Power
	c.Toughness = e.Toughness
	c.HasPT = true
}

// SwitchPowerToughnessEffect exchanges power and toughness. Applies after all
// other power/toughness changes regardless of timestamp.
type SwitchPowerToughnessEffect struct {
	baseEffect
}

func NewSwitchPowerToughnessEffect(sourceID string, filter Filter, duration Duration) *SwitchPowerToughnessEffect {
	return &SwitchPowerToughnessEffect{
		baseEffect: newBaseEffect(sourceID, LayerPowerToughness, SublayerSwitchPT, duration, filter),
	}
}

func (e *SwitchPowerToughnessEffect) Apply(c *Characteristics) {
	c.Power, c.Toughness = c.Toughness, c.Power
}

// GrantAbilityEffect adds an ability, e.g. "gains flying".
type GrantAbilityEffect struct {
	baseEffect
	Ability string
}

func NewGrantAbilityEffect(sourceID string, filter Filter, ability string, duration Duration) *GrantAbilityEffect {
	return &GrantAbilityEffect{
		baseEffect: newBaseEffect(sourceID, LayerAbility, SublayerNone, duration, filter),
		Ability:    strings.TrimSpace(ability),
	}
}

func (e *GrantAbilityEffect) Apply(c *Characteristics) {
	if !c.HasAbility(e.Ability) {
		c.Abilities = append(c.Abilities, e.Ability)
	}
}

// RemoveAbilityEffect removes an ability, e.g. "loses flying". Removing all
// abilities uses RemoveAllAbilitiesEffect instead.
type RemoveAbilityEffect struct {
	baseEffect
	Ability string
}

func NewRemoveAbilityEffect(sourceID string, filter Filter, ability string, duration Duration) *RemoveAbilityEffect {
	return &RemoveAbilityEffect{
		baseEffect: newBaseEffect(sourceID, LayerAbility, SublayerNone, duration, filter),
		Ability:    strings.TrimSpace(ability),
	}
}

func (e *RemoveAbilityEffect) Apply(c *Characteristics) {
	kept := c.Abilities[:0]
	for _, ability := range c.Abilities {
		if !strings.EqualFold(ability, e.Ability) {
			kept = append(kept, ability)
		}
	}
	c.Abilities = kept
}

// RemoveAllAbilitiesEffect strips every ability from the object.
type RemoveAllAbilitiesEffect struct {
	baseEffect
}

func NewRemoveAllAbilitiesEffect(sourceID string, filter Filter, duration Duration) *RemoveAllAbilitiesEffect {
	return &RemoveAllAbilitiesEffect{
		baseEffect: newBaseEffect(sourceID, LayerAbility, SublayerNone, duration, filter),
	}
}

func (e *RemoveAllAbilitiesEffect) Apply(c *Characteristics) {
	c.Abilities = nil
}

// SetColorEffect replaces the object's colors.
type SetColorEffect struct {
	baseEffect
	Colors []string
}

func NewSetColorEffect(sourceID string, filter Filter, colors []string, duration Duration) *SetColorEffect {
	return &SetColorEffect{
		baseEffect: newBaseEffect(sourceID, LayerColor, SublayerNone, duration, filter),
		Colors:     append([]string(nil), colors...),
	}
}

func (e *SetColorEffect) Apply(c *Characteristics) {
	c.Colors = append([]string(nil), e.Colors...)
}

// AddColorEffect adds a color without removing existing ones.
type AddColorEffect struct {
	baseEffect
	Color string
}

func NewAddColorEffect(sourceID string, filter Filter, color string, duration Duration) *AddColorEffect {
	return &AddColorEffect{
		baseEffect: newBaseEffect(sourceID, LayerColor, SublayerNone, duration, filter),
		Color:      strings.TrimSpace(color),
	}
}

func (e *AddColorEffect) Apply(c *Characteristics) {
	if !c.HasColor(e.Color) {
		c.Colors = append(c.Colors, e.Color)
	}
}

// AddTypeEffect adds a card type or subtype, e.g. "is a creature in addition
// to its other types".
type AddTypeEffect struct {
	baseEffect
	Type    string
	Subtype string
}

func NewAddTypeEffect(sourceID string, filter Filter, cardType, subtype string, duration Duration) *AddTypeEffect {
	return &AddTypeEffect{
		baseEffect: newBaseEffect(sourceID, LayerType, SublayerNone, duration, filter),
		Type:       strings.TrimSpace(cardType),
		Subtype:    strings.TrimSpace(subtype),
	}
}

func (e *AddTypeEffect) Apply(c *Characteristics) {
	if e.Type != "" && !c.HasType(e.Type) {
		c.Types = append(c.Types, e.Type)
	}
	if e.Subtype != "" && !c.HasSubtype(e.Subtype) {
		c.Subtypes = append(c.Subtypes, e.Subtype)
	}
}

// ChangeControlEffect changes who controls the object.
type ChangeControlEffect struct {
	baseEffect
	NewController string
}

func NewChangeControlEffect(sourceID string, filter Filter, newController string, duration Duration) *ChangeControlEffect {
	return &ChangeControlEffect{
		baseEffect:    newBaseEffect(sourceID, LayerControl, SublayerNone, duration, filter),
		NewController: strings.TrimSpace(newController),
	}
}

func (e *ChangeControlEffect) Apply(c *Characteristics) {
	c.ControllerID = e.NewController
}

// ChangeNameEffect replaces the object's name, the text-changing layer's most
// common case.
type ChangeNameEffect struct {
	baseEffect
	NewName string
}

func NewChangeNameEffect(sourceID string, filter Filter, newName string, duration Duration) *ChangeNameEffect {
	return &ChangeNameEffect{
		baseEffect: newBaseEffect(sourceID, LayerText, SublayerNone, duration, filter),
		NewName:    strings.TrimSpace(newName),
	}
}

func (e *ChangeNameEffect) Apply(c *Characteristics) {
	c.Name = e.NewName
}

// CopyCharacteristicsEffect makes the object a copy of another object's
// printed characteristics. Applies before everything else.
type CopyCharacteristicsEffect struct {
	baseEffect
	Copied *Characteristics
}

func NewCopyCharacteristicsEffect(sourceID string, filter Filter, copied *Characteristics, duration Duration) *CopyCharacteristicsEffect {
	return &CopyCharacteristicsEffect{
		baseEffect: newBaseEffect(sourceID, LayerCopy, SublayerNone, duration, filter),
		Copied:     copied.Copy(),
	}
}

func (e *CopyCharacteristicsEffect) Apply(c *Characteristics) {
	objectID, controller := c.ObjectID, c.ControllerID
	*c = *e.Copied.Copy()
	c.ObjectID = objectID
	c.ControllerID = controller
}
