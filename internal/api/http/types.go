package http

import (
	feeddomain "github.com/civiclens/civiclens-backend/internal/feed/domain"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signupRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type guestRequest struct {
	// Code is the one-time guest token code; empty means anonymous sign-in.
	Code string `json:"code"`
}

type submitIssueRequest struct {
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Location    string                   `json:"location"`
	Coordinates *feeddomain.Coordinates  `json:"coordinates,omitempty"`
	Media       *submitIssueMediaPayload `json:"media,omitempty"`
}

type submitIssueMediaPayload struct {
	Kind    string `json:"kind"`
	Locator string `json:"locator"`
}

func (r submitIssueRequest) toDraft() feeddomain.Draft {
	draft := feeddomain.Draft{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Coordinates: r.Coordinates,
		Media:       feeddomain.Media{Kind: feeddomain.MediaNone},
	}
	if r.Media != nil {
		draft.Media = feeddomain.Media{
			Kind:    feeddomain.MediaKind(r.Media.Kind),
			Locator: r.Media.Locator,
		}
	}
	return draft
}
