package mana

import (
	"fmt"
)

// Payment records exactly how much of each mana type a payment consumed, so a
// failed action can refund the pool without reconstructing history.
type Payment struct {
	Spent  map[Type]int
	XValue int
}

// Pay attempts to pay cost from pool, spending mana only if the entire cost
// is payable. Payment is all-or-nothing: on failure the pool is untouched and
// an error describing the first unpayable component is returned.
//
// Generic components prefer colorless, then colored mana in WUBRG order.
// Hybrid symbols are satisfied by the first payable option, trying colored
// halves before the generic half.
func Pay(cost *Cost, pool *Pool, xValue int) (*Payment, error) {
	if cost == nil {
		return &Payment{Spent: map[Type]int{}}, nil
	}
	if cost.X && xValue < 0 {
		return nil, fmt.Errorf("cost contains {X} but no value was chosen")
	}

	// Work on a scratch copy so failure leaves the real pool untouched.
	scratch := pool.Copy()
	payment := &Payment{Spent: make(map[Type]int), XValue: xValue}

	for _, manaType := range Types {
		need := cost.Colored[manaType]
		if need == 0 {
			continue
		}
		if !scratch.Spend(manaType, need) {
			return nil, fmt.Errorf("insufficient %s mana (need %d, have %d)",
				manaType, need, pool.Get(manaType))
		}
		payment.Spent[manaType] += need
	}

	for _, hybrid := range cost.Hybrid {
		if !payHybrid(hybrid, scratch, payment) {
			return nil, fmt.Errorf("cannot pay hybrid symbol")
		}
	}

	generic := cost.Generic
	if cost.X {
		generic += xValue
	}
	if paid := payGeneric(generic, scratch, payment); paid < generic {
		return nil, fmt.Errorf("insufficient mana for generic cost (need %d, have %d)",
			generic, paid+scratch.Total())
	}

	// Everything is payable; commit against the real pool.
	for manaType, amount := range payment.Spent {
		if !pool.Spend(manaType, amount) {
			// The scratch copy proved this spend possible.
			panic(fmt.Sprintf("mana payment commit failed for %s x%d", manaType, amount))
		}
	}
	return payment, nil
}

func payHybrid(hybrid HybridSymbol, scratch *Pool, payment *Payment) bool {
	for _, option := range hybrid.Options {
		if scratch.Spend(option, 1) {
			payment.Spent[option]++
			return true
		}
	}
	if hybrid.GenericOption > 0 {
		return payGeneric(hybrid.GenericOption, scratch, payment) == hybrid.GenericOption
	}
	return false
}

// payGeneric drains up to amount from the scratch pool, colorless first, and
// returns how much it managed to cover.
func payGeneric(amount int, scratch *Pool, payment *Payment) int {
	remaining := amount
	order := []Type{Colorless, White, Blue, Black, Red, Green}
	for _, manaType := range order {
		if remaining == 0 {
			break
		}
		available := scratch.Get(manaType)
		if available == 0 {
			continue
		}
		spend := remaining
		if spend > available {
			spend = available
		}
		scratch.Spend(manaType, spend)
		payment.Spent[manaType] += spend
		remaining -= spend
	}
	return amount - remaining
}

// Refund returns previously spent mana to the pool. Used when a later cost
// component of the same action turns out to be unpayable.
func (p *Payment) Refund(pool *Pool) {
	for manaType, amount := range p.Spent {
		pool.Add(manaType, amount)
	}
}

// CanPay reports whether cost is payable from pool without spending anything.
func CanPay(cost *Cost, pool *Pool, xValue int) bool {
	_, err := Pay(cost, pool.Copy(), xValue)
	return err == nil
}
