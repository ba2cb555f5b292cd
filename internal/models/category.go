package models

// Categories is the fixed set a post can be filed under, in display order.
var Categories = []string{"Python", "SQL", "Concepts", "Other"}

// IsValidCategory reports whether name is one of Categories. Matching is exact.
func IsValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
