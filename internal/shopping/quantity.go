package shopping

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultUnit is used for bare counts such as "2".
const DefaultUnit = "piece"

// Leading number, optional spaces, optional first word. Anything after the
// first word ("1 cuillère à soupe") is not part of the unit.
var quantityRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(\p{L}+)?`)

// Quantity is a parsed ingredient amount.
type Quantity struct {
	Value float64
	Unit  string
}

// ParseQuantity reads free-text quantities like "400g", "1,5 kg", "2" or
// "une pincée". It never fails: text without a leading number counts as one
// unit named after the whole original text.
func ParseQuantity(text string) Quantity {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(text)), ",", ".")
	if norm == "" {
		return Quantity{Value: 1, Unit: DefaultUnit}
	}

	m := quantityRe.FindStringSubmatch(norm)
	if m == nil {
		return Quantity{Value: 1, Unit: text}
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Quantity{Value: 1, Unit: DefaultUnit}
	}

	unit := m[2]
	if unit == "" {
		unit = DefaultUnit
	}
	return Quantity{Value: value, Unit: unit}
}
