package constraint

import "slices"

// interestCategories maps interests to point-of-interest category ids used as
// search hints by activity providers.
var interestCategories = map[Tag][]string{
	"history":  {"4deefb944765f83613cdba6e"}, // historic site
	"food":     {"4d4b7105d754a06374d81259"},
	"nature":   {"4d4b7105d754a06377d81259"}, // outdoors
	"culture":  {"4d4b7104d754a06370d81259"}, // arts & entertainment
	"shopping": {"4d4b7105d754a06378d81259"},
}

// InterestCategories returns the category ids for the known interests,
// in interest order and without duplicates.
func InterestCategories(interests TagSet) []string {
	var out []string
	for _, t := range interests.Tags() {
		for _, c := range interestCategories[t] {
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	return out
}
