package mana

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Cost represents a parsed mana cost such as {2}{G}{G} or {X}{R}.
type Cost struct {
	Generic int
	Colored map[Type]int
	X       bool
	Hybrid  []HybridSymbol
}

// HybridSymbol represents a hybrid mana symbol such as {W/U} or {2/B}. Each
// option is one way to pay for the symbol.
type HybridSymbol struct {
	Options []Type
	// GenericOption is non-zero when one half is a numeric cost ({2/B}).
	GenericOption int
}

var symbolPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ParseCost parses a mana cost string. Supported symbols: numeric generic
// ({0}, {1}, ...), colored ({W}{U}{B}{R}{G}), colorless ({C}), variable
// ({X}), and hybrid ({W/U}, {2/B}). An unknown symbol is an error; costs are
// pre-compiled card data, so failing loudly at load time is intended.
func ParseCost(costStr string) (*Cost, error) {
	cost := &Cost{Colored: make(map[Type]int)}
	if strings.TrimSpace(costStr) == "" {
		return cost, nil
	}

	matches := symbolPattern.FindAllStringSubmatch(costStr, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("malformed mana cost %q", costStr)
	}

	for _, match := range matches {
		symbol := strings.ToUpper(strings.TrimSpace(match[1]))
		switch symbol {
		case "X":
			cost.X = true
		case "W":
			cost.Colored[White]++
		case "U":
			cost.Colored[Blue]++
		case "B":
			cost.Colored[Black]++
		case "R":
			cost.Colored[Red]++
		case "G":
			cost.Colored[Green]++
		case "C":
			cost.Colored[Colorless]++
		default:
			if num, err := strconv.Atoi(symbol); err == nil {
				if num < 0 {
					return nil, fmt.Errorf("negative mana symbol {%s}", symbol)
				}
				cost.Generic += num
				continue
			}
			if strings.Contains(symbol, "/") {
				hybrid, err := parseHybridSymbol(symbol)
				if err != nil {
					return nil, err
				}
				cost.Hybrid = append(cost.Hybrid, hybrid)
				continue
			}
			return nil, fmt.Errorf("unknown mana symbol {%s}", symbol)
		}
	}

	return cost, nil
}

func parseHybridSymbol(symbol string) (HybridSymbol, error) {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 {
		return HybridSymbol{}, fmt.Errorf("unknown hybrid symbol {%s}", symbol)
	}

	var hybrid HybridSymbol
	for _, part := range parts {
		if num, err := strconv.Atoi(part); err == nil {
			if num <= 0 {
				return HybridSymbol{}, fmt.Errorf("unknown hybrid symbol {%s}", symbol)
			}
			hybrid.GenericOption = num
			continue
		}
		manaType, ok := typeForSymbol(part)
		if !ok {
			return HybridSymbol{}, fmt.Errorf("unknown hybrid symbol {%s}", symbol)
		}
		hybrid.Options = append(hybrid.Options, manaType)
	}
	if len(hybrid.Options) == 0 {
		return HybridSymbol{}, fmt.Errorf("unknown hybrid symbol {%s}", symbol)
	}
	return hybrid, nil
}

func typeForSymbol(symbol string) (Type, bool) {
	switch symbol {
	case "W":
		return White, true
	case "U":
		return Blue, true
	case "B":
		return Black, true
	case "R":
		return Red, true
	case "G":
		return Green, true
	case "C":
		return Colorless, true
	}
	return "", false
}

// ManaValue returns the converted cost with X counted as xValue.
func (c *Cost) ManaValue(xValue int) int {
	total := c.Generic
	for _, amount := range c.Colored {
		total += amount
	}
	for _, hybrid := range c.Hybrid {
		if hybrid.GenericOption > 1 {
			total += hybrid.GenericOption
		} else {
			total++
		}
	}
	if c.X {
		total += xValue
	}
	return total
}

// IsFree reports whether the cost requires no mana at all.
func (c *Cost) IsFree() bool {
	return c.Generic == 0 && len(c.Colored) == 0 && len(c.Hybrid) == 0 && !c.X
}

// String renders the cost back into symbol notation.
func (c *Cost) String() string {
	var sb strings.Builder
	if c.X {
		sb.WriteString("{X}")
	}
	if c.Generic > 0 {
		fmt.Fprintf(&sb, "{%d}", c.Generic)
	}
	for _, manaType := range Types {
		for i := 0; i < c.Colored[manaType]; i++ {
			fmt.Fprintf(&sb, "{%s}", symbolForType(manaType))
		}
	}
	for _, hybrid := range c.Hybrid {
		parts := make([]string, 0, 2)
		if hybrid.GenericOption > 0 {
			parts = append(parts, strconv.Itoa(hybrid.GenericOption))
		}
		for _, option := range hybrid.Options {
			parts = append(parts, symbolForType(option))
		}
		fmt.Fprintf(&sb, "{%s}", strings.Join(parts, "/"))
	}
	return sb.String()
}

func symbolForType(manaType Type) string {
	switch manaType {
	case White:
		return "W"
	case Blue:
		return "U"
	case Black:
		return "B"
	case Red:
		return "R"
	case Green:
		return "G"
	case Colorless:
		return "C"
	}
	return "?"
}

// Copy creates a deep copy of the cost.
func (c *Cost) Copy() *Cost {
	cpy := &Cost{
		Generic: c.Generic,
		Colored: make(map[Type]int, len(c.Colored)),
		X:       c.X,
		Hybrid:  append([]HybridSymbol(nil), c.Hybrid...),
	}
	for manaType, amount := range c.Colored {
		cpy.Colored[manaType] = amount
	}
	return cpy
}
