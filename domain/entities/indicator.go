package entities

// Indicator is one of the five visual states a device maps a result priority
// onto, plus an explicit unknown state for anything outside the valid range.
type Indicator string

const (
	IndicatorGreen     Indicator = "green"
	IndicatorYellow    Indicator = "yellow"
	IndicatorOrange    Indicator = "orange"
	IndicatorRedOrange Indicator = "red-orange"
	IndicatorRed       Indicator = "red"
	IndicatorUnknown   Indicator = "unknown"
)

// RGB is the color a hardware driver should display for an indicator.
type RGB struct {
	R, G, B uint8
}

var indicatorColors = map[Indicator]RGB{
	IndicatorGreen:     {0, 128, 0},
	IndicatorYellow:    {255, 255, 0},
	IndicatorOrange:    {255, 165, 0},
	IndicatorRedOrange: {255, 69, 0},
	IndicatorRed:       {255, 0, 0},
	IndicatorUnknown:   {255, 255, 255},
}

// IndicatorForPriority maps a result priority to an indicator state. The
// function is total: inputs 1..5 map to the five distinct states, everything
// else maps to unknown.
func IndicatorForPriority(priority int) Indicator {
	switch priority {
	case 1:
		return IndicatorGreen
	case 2:
		return IndicatorYellow
	case 3:
		return IndicatorOrange
	case 4:
		return IndicatorRedOrange
	case 5:
		return IndicatorRed
	default:
		return IndicatorUnknown
	}
}

// Color returns the display color for an indicator state.
func (i Indicator) Color() RGB {
	if c, ok := indicatorColors[i]; ok {
		return c
	}
	return indicatorColors[IndicatorUnknown]
}
