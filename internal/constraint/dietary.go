package constraint

// foodTags mark an activity as food related; only those are checked against
// dietary restrictions.
var foodTags = SetOf("food", "restaurant", "dining", "cafe", "market", "bakery")

// dietaryConflicts lists, per restriction, the candidate tags that rule a
// food activity out. Any restriction also conflicts with "not-<restriction>".
var dietaryConflicts = map[Tag][]Tag{
	"vegetarian":  {"meat-only", "contains-meat"},
	"vegan":       {"meat-only", "contains-meat", "contains-dairy", "contains-egg"},
	"gluten-free": {"contains-gluten"},
	"halal":       {"contains-pork", "contains-alcohol"},
	"kosher":      {"contains-pork", "contains-shellfish"},
	"nut-free":    {"contains-nuts"},
	"dairy-free":  {"contains-dairy"},
}

// IsFoodRelated reports whether tags describe a food activity.
func IsFoodRelated(tags TagSet) bool {
	return len(tags.Intersect(foodTags)) > 0
}

// DietaryConflicts returns the restrictions in dietary that tags violate.
func DietaryConflicts(dietary, tags TagSet) []Tag {
	var out []Tag
	for _, r := range dietary.Tags() {
		if tags.Has("not-" + r) {
			out = append(out, r)
			continue
		}
		for _, c := range dietaryConflicts[r] {
			if tags.Has(c) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
