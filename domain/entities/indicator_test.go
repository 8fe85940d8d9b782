package entities

import "testing"

func TestIndicatorMappingIsTotal(t *testing.T) {
	expected := map[int]Indicator{
		1: IndicatorGreen,
		2: IndicatorYellow,
		3: IndicatorOrange,
		4: IndicatorRedOrange,
		5: IndicatorRed,
	}

	seen := map[Indicator]bool{}
	for priority, want := range expected {
		got := IndicatorForPriority(priority)
		if got != want {
			t.Errorf("priority %d: expected %s, got %s", priority, want, got)
		}
		if seen[got] {
			t.Errorf("indicator %s mapped from more than one priority", got)
		}
		seen[got] = true
	}
	if len(seen) != 5 {
		t.Errorf("expected five distinct indicator states, got %d", len(seen))
	}
}

func TestIndicatorMappingOutsideRange(t *testing.T) {
	for _, priority := range []int{-3, 0, 6, 7, 100} {
		if got := IndicatorForPriority(priority); got != IndicatorUnknown {
			t.Errorf("priority %d: expected unknown, got %s", priority, got)
		}
	}
}

func TestIndicatorColors(t *testing.T) {
	if IndicatorRed.Color() != (RGB{255, 0, 0}) {
		t.Error("red indicator should display pure red")
	}
	if IndicatorGreen.Color() != (RGB{0, 128, 0}) {
		t.Error("green indicator should display green")
	}
	if Indicator("bogus").Color() != (RGB{255, 255, 255}) {
		t.Error("unmapped indicator should fall back to the unknown color")
	}
}
