package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// WeightUnit is the unit a set's weight was logged in.
type WeightUnit string

const (
	Kilogram WeightUnit = "kg"
	Pound    WeightUnit = "lb"
)

var poundsPerKilogram = decimal.RequireFromString("2.20462")

// ParseWeightUnit accepts "kg", "lb" and "lbs" in any case.
func ParseWeightUnit(raw string) (WeightUnit, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "kg":
		return Kilogram, nil
	case "lb", "lbs":
		return Pound, nil
	}
	return "", fmt.Errorf("unknown weight unit %q", raw)
}

// Valid reports whether u is kg or lb.
func (u WeightUnit) Valid() bool {
	return u == Kilogram || u == Pound
}

// DisplayName is the label shown next to weights.
func (u WeightUnit) DisplayName() string {
	if u == Pound {
		return "lbs"
	}
	return string(u)
}

// ConvertWeight converts weight between units, rounded to 2 decimal places.
// Same-unit conversions return the input untouched.
func ConvertWeight(weight float64, from, to WeightUnit) float64 {
	if from == to {
		return weight
	}
	w := decimal.NewFromFloat(weight)
	if from == Kilogram && to == Pound {
		w = w.Mul(poundsPerKilogram)
	} else {
		w = w.Div(poundsPerKilogram)
	}
	f, _ := w.Round(2).Float64()
	return f
}
