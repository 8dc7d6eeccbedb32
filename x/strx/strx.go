// Package strx holds string defaulting helpers shared by config decoding
// paths, where "" means "caller did not say" and a documented fallback
// applies.
package strx

// Coalesce returns s unless it is empty, in which case it returns d.
func Coalesce(s, d string) string {
	if s == "" {
		return d
	}
	return s
}
