package domain

// Entry is one row of the points leaderboard, a derived read model over the
// profile aggregates. The cache is best-effort: a failed refresh keeps the
// previous ranking.
type Entry struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name,omitempty"`
	Points      int64  `json:"points"`
}
