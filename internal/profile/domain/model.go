package domain

import (
	"errors"
	"time"
)

// PointsPerReport is credited on an accepted report and reverted on deletion.
const PointsPerReport = 10

const (
	BadgeFirstReport      = "First Report"
	BadgeNeighborhoodHero = "Neighborhood Hero"
)

// badgeThresholds maps a reported-issues count to the badge it unlocks.
var badgeThresholds = []struct {
	Count int64
	Badge string
}{
	{1, BadgeFirstReport},
	{5, BadgeNeighborhoodHero},
}

var ErrProfileNotFound = errors.New("profile not found")

// ProfileAggregate is the per-identity gamification state. The document key is
// the identity's uid; only that identity's own actions mutate it.
type ProfileAggregate struct {
	UID            string    `json:"uid" firestore:"uid"`
	DisplayName    string    `json:"display_name,omitempty" firestore:"displayName,omitempty"`
	Points         int64     `json:"points" firestore:"points"`
	ReportedIssues int64     `json:"reported_issues" firestore:"reportedIssues"`
	Badges         []string  `json:"badges" firestore:"badges"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time `json:"updated_at" firestore:"updatedAt"`
}

// NewZeroState returns the default aggregate persisted on first profile read.
func NewZeroState(uid, displayName string, now time.Time) *ProfileAggregate {
	return &ProfileAggregate{
		UID:            uid,
		DisplayName:    displayName,
		Points:         0,
		ReportedIssues: 0,
		Badges:         []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// BadgesFor computes the badge set for a reported-issues count. Badges are a
// pure function of the count; thresholds never produce duplicates.
func BadgesFor(reportedIssues int64) []string {
	badges := []string{}
	for _, t := range badgeThresholds {
		if reportedIssues >= t.Count {
			badges = append(badges, t.Badge)
		}
	}
	return badges
}
