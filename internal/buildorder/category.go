package buildorder

import (
	"strings"

	"golang.org/x/text/cases"
)

// Category is a tracked worker type, recognised by keywords in the icon path.
type Category struct {
	Name     string
	Keywords []string
}

var (
	Villager    = Category{Name: "villager", Keywords: []string{"villager"}}
	Trader      = Category{Name: "trader", Keywords: []string{"trade_cart", "trader", "trade_ship"}}
	FishingBoat = Category{Name: "fishing_boat", Keywords: []string{"fishing_boat", "fishing_ship"}}
)

// Categories lists the tracked categories in WorkerPeaks field order.
var Categories = []Category{Villager, Trader, FishingBoat}

// Matches reports whether the entry is a unit whose icon path contains any of
// the category keywords, ignoring case.
func (c Category) Matches(e Entry) bool {
	if !e.IsUnit() || e.Icon == "" {
		return false
	}

	// A Caser is stateful, so one per call
	icon := cases.Fold().String(e.Icon)
	for _, kw := range c.Keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(icon, cases.Fold().String(kw)) {
			return true
		}
	}
	return false
}
