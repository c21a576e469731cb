// Package mana implements mana pools, cost parsing, and all-or-nothing cost
// payment following rules 106 and 202.
package mana

// Type represents a type of mana.
type Type string

const (
	White     Type = "WHITE"
	Blue      Type = "BLUE"
	Black     Type = "BLACK"
	Red       Type = "RED"
	Green     Type = "GREEN"
	Colorless Type = "COLORLESS"
	// Generic is only valid inside costs; it can be paid with any type.
	Generic Type = "GENERIC"
)

// Types lists the payable mana types in canonical WUBRG order.
var Types = []Type{White, Blue, Black, Red, Green, Colorless}

// Pool represents a player's mana pool. Pools empty at the end of each step
// and phase (rule 106.4); the engine calls Empty at those transition points.
//
// The pool is only ever touched from the single goroutine driving its game
// instance, so it carries no lock.
type Pool struct {
	amounts map[Type]int
}

// NewPool creates a new empty mana pool.
func NewPool() *Pool {
	return &Pool{amounts: make(map[Type]int)}
}

// Add adds mana of the given type to the pool.
func (p *Pool) Add(manaType Type, amount int) {
	if amount <= 0 || manaType == Generic {
		return
	}
	p.amounts[manaType] += amount
}

// Get returns the amount of a specific mana type in the pool.
func (p *Pool) Get(manaType Type) int {
	return p.amounts[manaType]
}

// Total returns the total mana count across all types.
func (p *Pool) Total() int {
	total := 0
	for _, amount := range p.amounts {
		total += amount
	}
	return total
}

// Spend removes mana of the given type. Returns false without mutating the
// pool if not enough is available.
func (p *Pool) Spend(manaType Type, amount int) bool {
	if amount <= 0 {
		return true
	}
	if p.amounts[manaType] < amount {
		return false
	}
	p.amounts[manaType] -= amount
	if p.amounts[manaType] == 0 {
		delete(p.amounts, manaType)
	}
	return true
}

// Empty removes all mana from the pool.
func (p *Pool) Empty() {
	p.amounts = make(map[Type]int)
}

// Copy creates a deep copy of the pool.
func (p *Pool) Copy() *Pool {
	cpy := NewPool()
	for manaType, amount := range p.amounts {
		cpy.amounts[manaType] = amount
	}
	return cpy
}

// Snapshot returns the pool contents keyed by type, for views and archives.
func (p *Pool) Snapshot() map[Type]int {
	out := make(map[Type]int, len(p.amounts))
	for manaType, amount := range p.amounts {
		out[manaType] = amount
	}
	return out
}
