package counters

import "fmt"

// Well-known counter names used by the engine core.
const (
	PlusOnePlusOne   = "+1/+1"
	MinusOneMinusOne = "-1/-1"
	Loyalty          = "loyalty"
	Poison           = "poison"
	Charge           = "charge"
)

// Counter represents a named counter on an object or player.
type Counter struct {
	Name  string
	Count int
}

// NewCounter creates a new counter with the given name and count.
func NewCounter(name string, count int) *Counter {
	if count <= 0 {
		count = 1
	}
	return &Counter{Name: name, Count: count}
}

// Add adds the specified amount to the counter.
func (c *Counter) Add(amount int) {
	if amount > 0 {
		c.Count += amount
	}
}

// Remove removes the specified amount from the counter, clamping at zero.
func (c *Counter) Remove(amount int) {
	if amount <= 0 {
		return
	}
	if c.Count >= amount {
		c.Count -= amount
	} else {
		c.Count = 0
	}
}

// Copy creates a deep copy of the counter.
func (c *Counter) Copy() *Counter {
	return &Counter{Name: c.Name, Count: c.Count}
}

// BoostCounterName formats the name of a power/toughness boost counter,
// e.g. "+1/+1" or "-2/-2".
func BoostCounterName(power, toughness int) string {
	return fmt.Sprintf("%s/%s", formatBoost(power), formatBoost(toughness))
}

func formatBoost(value int) string {
	if value > 0 {
		return fmt.Sprintf("+%d", value)
	}
	return fmt.Sprintf("%d", value)
}

// ParseBoostCounterName parses a boost counter name into its power and
// toughness deltas. Returns false for names that are not boost counters.
func ParseBoostCounterName(name string) (power, toughness int, ok bool) {
	var p, t int
	if _, err := fmt.Sscanf(name, "%d/%d", &p, &t); err != nil {
		return 0, 0, false
	}
	return p, t, true
}
