package domain

import (
	"errors"
	"fmt"
	"time"
)

// IssueStatus enum. Status transitions come from an external actor, never
// from this application.
type IssueStatus string

const (
	StatusAcknowledged IssueStatus = "Acknowledged"
	StatusInProgress   IssueStatus = "In-Progress"
	StatusResolved     IssueStatus = "Resolved"
)

// MediaKind tags the media attached to an issue.
type MediaKind string

const (
	MediaNone  MediaKind = "none"
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// Media is the tagged media reference of an issue: exactly one kind and, for
// anything but MediaNone, the locator (URL or data URL) resolving it.
type Media struct {
	Kind    MediaKind `json:"kind" firestore:"kind"`
	Locator string    `json:"locator,omitempty" firestore:"locator,omitempty"`
}

// Valid reports whether the media reference is well formed.
func (m Media) Valid() bool {
	switch m.Kind {
	case MediaNone:
		return m.Locator == ""
	case MediaPhoto, MediaVideo, MediaAudio:
		return m.Locator != ""
	default:
		return false
	}
}

// Primary reports whether this media is the primary displayed one when
// compared against other. Video takes precedence over photo, independent of
// storage order.
func (m Media) Primary(other Media) bool {
	rank := func(k MediaKind) int {
		switch k {
		case MediaVideo:
			return 3
		case MediaPhoto:
			return 2
		case MediaAudio:
			return 1
		default:
			return 0
		}
	}
	return rank(m.Kind) >= rank(other.Kind)
}

// Coordinates is an optional lat/lng pair captured at submission time.
type Coordinates struct {
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
}

// Issue is one user-submitted civic-issue report.
type Issue struct {
	ID          string       `json:"id" firestore:"-"`
	Title       string       `json:"title" firestore:"title"`
	Description string       `json:"description" firestore:"description"`
	Location    string       `json:"location" firestore:"location"`
	Coordinates *Coordinates `json:"coordinates,omitempty" firestore:"coordinates,omitempty"`
	Media       Media        `json:"media" firestore:"media"`
	Status      IssueStatus  `json:"status" firestore:"status"`
	Upvotes     int64        `json:"upvotes" firestore:"upvotes"`
	CreatedAt   time.Time    `json:"created_at" firestore:"createdAt"`
	ReporterID  string       `json:"reporter_id" firestore:"reporterId"`
}

// Draft is the user-entered part of a new issue.
type Draft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Media       Media        `json:"media"`
}

var (
	ErrIssueNotFound = errors.New("issue not found")
	ErrNotReporter   = errors.New("only the reporter may delete an issue")
)

// ValidationError is a local, pre-network failure. It blocks the remote call
// entirely.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}
