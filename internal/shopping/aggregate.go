package shopping

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"nutrition-planner/internal/planner"
)

// keySeparator joins the two halves of Key.String. NewKey removes it from
// both halves so ParseKey always splits where String joined.
const keySeparator = "\x1f"

// Key identifies one shopping list row: the normalized item name and its unit.
// The same item in different units yields different keys.
type Key struct {
	Item string
	Unit string
}

// NewKey normalizes an item name into a key.
func NewKey(item, unit string) Key {
	item = strings.ReplaceAll(item, keySeparator, "")
	return Key{
		Item: strings.ToLower(strings.TrimSpace(item)),
		Unit: strings.ReplaceAll(unit, keySeparator, ""),
	}
}

// String is the persisted form of the key, used for check-off state.
func (k Key) String() string {
	return k.Item + keySeparator + k.Unit
}

// ParseKey reverses Key.String.
func ParseKey(s string) (Key, bool) {
	item, unit, ok := strings.Cut(s, keySeparator)
	if !ok {
		return Key{}, false
	}
	return Key{Item: item, Unit: unit}, true
}

// Less orders keys by item, then unit.
func (k Key) Less(o Key) bool {
	if k.Item != o.Item {
		return k.Item < o.Item
	}
	return k.Unit < o.Unit
}

// Entry is one row of the shopping list.
type Entry struct {
	Key         Key     `json:"-"`
	DisplayName string  `json:"name"`
	Amount      float64 `json:"amount"`
	Unit        string  `json:"unit"`
}

// FormatAmount renders the amount without trailing zeros: "500", "1.5".
func (e Entry) FormatAmount() string {
	return strconv.FormatFloat(e.Amount, 'f', -1, 64)
}

type accumulator struct {
	displayName string
	total       float64
}

// Aggregate computes the shopping list of a plan: every ingredient of every
// used recipe, multiplied by how often the recipe is served, summed per
// (item, unit). Rows are sorted by key. A plan with no used recipe yields an
// empty list.
func Aggregate(plan *planner.MealPlan) []Entry {
	entries := []Entry{}
	if plan == nil {
		return entries
	}

	usage := CountUsage(plan.Days)

	// Walk the catalog in ID order so the first-seen display name is stable.
	ids := make([]string, 0, len(plan.Recipes))
	for id := range plan.Recipes {
		if usage[id] > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	acc := make(map[Key]*accumulator)
	for _, id := range ids {
		count := float64(usage[id])
		for _, ing := range plan.Recipes[id].Ingredients {
			q := ParseQuantity(ing.Quantity)
			key := NewKey(ing.Item, q.Unit)
			a, ok := acc[key]
			if !ok {
				a = &accumulator{displayName: strings.TrimSpace(ing.Item)}
				acc[key] = a
			}
			a.total += q.Value * count
		}
	}

	for key, a := range acc {
		entries = append(entries, Entry{
			Key:         key,
			DisplayName: a.displayName,
			Amount:      roundAmount(a.total),
			Unit:        key.Unit,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key.Less(entries[j].Key) })
	return entries
}

// roundAmount keeps whole numbers exact and rounds the rest to one decimal.
func roundAmount(v float64) float64 {
	if v == math.Trunc(v) {
		return v
	}
	return math.Round(v*10) / 10
}
