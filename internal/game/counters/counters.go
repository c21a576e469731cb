package counters

// Counters manages the collection of counters on a single object or player.
type Counters struct {
	Counters map[string]*Counter
}

// NewCounters creates an empty Counters collection.
func NewCounters() *Counters {
	return &Counters{Counters: make(map[string]*Counter)}
}

// AddCounter adds a counter to the collection, merging with an existing
// counter of the same name.
func (cs *Counters) AddCounter(counter *Counter) {
	if counter == nil {
		return
	}
	if existing, ok := cs.Counters[counter.Name]; ok {
		existing.Add(counter.Count)
	} else {
		cs.Counters[counter.Name] = counter.Copy()
	}
}

// Add is a convenience for AddCounter(NewCounter(name, amount)).
func (cs *Counters) Add(name string, amount int) {
	if amount <= 0 {
		return
	}
	cs.AddCounter(NewCounter(name, amount))
}

// RemoveCounter removes up to amount counters of the given name. Returns the
// number actually removed.
func (cs *Counters) RemoveCounter(name string, amount int) int {
	if amount <= 0 {
		return 0
	}
	counter, ok := cs.Counters[name]
	if !ok {
		return 0
	}
	removed := amount
	if removed > counter.Count {
		removed = counter.Count
	}
	counter.Remove(removed)
	if counter.Count == 0 {
		delete(cs.Counters, name)
	}
	return removed
}

// GetCount returns the count of counters with the given name.
func (cs *Counters) GetCount(name string) int {
	if counter, ok := cs.Counters[name]; ok {
		return counter.Count
	}
	return 0
}

// HasCounter returns true if there are any counters with the given name.
func (cs *Counters) HasCounter(name string) bool {
	return cs.GetCount(name) > 0
}

// GetTotalCount returns the total number of counters of all names.
func (cs *Counters) GetTotalCount() int {
	total := 0
	for _, counter := range cs.Counters {
		total += counter.Count
	}
	return total
}

// BoostTotals sums the power/toughness deltas contributed by boost counters.
func (cs *Counters) BoostTotals() (power, toughness int) {
	for _, counter := range cs.Counters {
		p, t, ok := ParseBoostCounterName(counter.Name)
		if !ok {
			continue
		}
		power += p * counter.Count
		toughness += t * counter.Count
	}
	return power, toughness
}

// Annihilate cancels matched pairs of +1/+1 and -1/-1 counters, returning the
// number of pairs removed. Run as part of the state-based action batch.
func (cs *Counters) Annihilate() int {
	plus := cs.GetCount(PlusOnePlusOne)
	minus := cs.GetCount(MinusOneMinusOne)
	pairs := plus
	if minus < pairs {
		pairs = minus
	}
	if pairs > 0 {
		cs.RemoveCounter(PlusOnePlusOne, pairs)
		cs.RemoveCounter(MinusOneMinusOne, pairs)
	}
	return pairs
}

// Copy creates a deep copy of the collection.
func (cs *Counters) Copy() *Counters {
	cpy := NewCounters()
	for name, counter := range cs.Counters {
		cpy.Counters[name] = counter.Copy()
	}
	return cpy
}
