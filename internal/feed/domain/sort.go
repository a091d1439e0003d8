package domain

import "sort"

// SortView orders a snapshot for display: upvotes descending, then createdAt
// descending. Missing upvotes count as 0 and a zero createdAt sorts last; ties
// keep the store's arrival order.
func SortView(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Upvotes != issues[j].Upvotes {
			return issues[i].Upvotes > issues[j].Upvotes
		}
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
}
