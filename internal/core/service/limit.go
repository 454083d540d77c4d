package service

const (
	// DefaultListLimit is the default page size for provenance event and
	// status-history range queries (getEvents(firstId, max) and friends).
	DefaultListLimit = 25
	// MaxListLimit bounds a single provenance or status-history page.
	MaxListLimit = 500
)

// ClampLimit returns a sane page size for a provenance/status-history range
// query using the provided default and maximum. Non-positive values yield the
// default; values above max clamp to max.
func ClampLimit(limit, defaultLimit, max int) int {
	if defaultLimit <= 0 {
		defaultLimit = DefaultListLimit
	}
	if max <= 0 {
		max = defaultLimit
	}
	if limit <= 0 {
		return defaultLimit
	}
	if limit > max {
		return max
	}
	return limit
}
