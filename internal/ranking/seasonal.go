package ranking

import (
	"slices"
	"strings"
	"time"
)

type season struct {
	months     []time.Month
	keywords   []string
	multiplier float64
}

// seasons are checked in order and the first whose months contain the date
// decides the result, even when none of its keywords match. August is
// therefore only ever a back-to-school month.
var seasons = []season{
	{
		months: []time.Month{time.November, time.December},
		keywords: []string{
			"iphone", "samsung", "laptop", "tablet", "headphones",
			"playstation", "xbox", "nintendo", "console", "game",
		},
		multiplier: 1.3,
	},
	{
		months:     []time.Month{time.January, time.February},
		keywords:   []string{"fitness", "treadmill", "weights", "exercise"},
		multiplier: 1.4,
	},
	{
		months:     []time.Month{time.August, time.September},
		keywords:   []string{"laptop", "tablet", "backpack"},
		multiplier: 1.2,
	},
	{
		months:     []time.Month{time.June, time.July, time.August},
		keywords:   []string{"camera", "phone", "speaker"},
		multiplier: 1.1,
	},
}

// SeasonalMultiplier returns the demand multiplier for a product title on
// the given date, 1.0 outside any matching season.
func SeasonalMultiplier(title string, date time.Time) float64 {
	title = strings.ToLower(title)
	month := date.Month()
	for _, s := range seasons {
		if !slices.Contains(s.months, month) {
			continue
		}
		for _, kw := range s.keywords {
			if strings.Contains(title, kw) {
				return s.multiplier
			}
		}
		return 1.0
	}
	return 1.0
}

