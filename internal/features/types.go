package features

import (
	"fmt"
	"strings"
)

// DateLayout is the canonical date form of a feature row
const DateLayout = "2006-01-02"

// DefaultWindow is the number of trailing rows the gap statistics span
const DefaultWindow = 3

// Gap category thresholds. Boundaries belong to the lower bin.
const (
	LowGapMax    = 4.0
	MediumGapMax = 8.0
)

// GapCategory is an ordered bin of the daily gap
type GapCategory int8

const (
	GapLow GapCategory = iota
	GapMedium
	GapHigh
)

func (c GapCategory) String() string {
	switch c {
	case GapLow:
		return "low"
	case GapMedium:
		return "medium"
	case GapHigh:
		return "high"
	default:
		return fmt.Sprintf("GapCategory(%d)", int8(c))
	}
}

// Categorize bins a gap: (-inf, 4] low, (4, 8] medium, (8, inf) high
func Categorize(gap float64) GapCategory {
	switch {
	case gap <= LowGapMax:
		return GapLow
	case gap <= MediumGapMax:
		return GapMedium
	default:
		return GapHigh
	}
}

// FeatureRow is one transformed daily observation
type FeatureRow struct {
	Date             string
	Open             float64
	High             float64
	Low              float64
	Close            float64
	Gap              float64
	GapCategory      GapCategory
	GapMovingAverage float64
	GapStdDev        float64
}

// Order selects the row sequence the rolling gap statistics run over
type Order int

const (
	// OrderGlobal rolls over the concatenated table as is, across symbols
	OrderGlobal Order = iota
	// OrderPerSymbol restarts the window for every symbol
	OrderPerSymbol
)

func (o Order) String() string {
	switch o {
	case OrderGlobal:
		return "global"
	case OrderPerSymbol:
		return "per_symbol"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder parses "global" or "per_symbol"
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "global":
		return OrderGlobal, nil
	case "per_symbol", "per-symbol", "symbol":
		return OrderPerSymbol, nil
	default:
		return 0, fmt.Errorf("unknown window order %q (use: global, per_symbol)", s)
	}
}

// Options tunes Transform. The zero value is the default behaviour.
type Options struct {
	Window int
	Order  Order
}

func (o Options) withDefaults() Options {
	if o.Window == 0 {
		o.Window = DefaultWindow
	}
	return o
}
