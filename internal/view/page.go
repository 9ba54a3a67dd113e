package view

import (
	"github.com/baditaflorin/go_status_dashboard/internal/models"
)

// Page is everything a renderer needs to draw the dashboard.
type Page struct {
	Services []models.ServiceRecord
	// Loaded is false until the first successful fetch.
	Loaded bool
	// Error is the inline banner; nil when the last action succeeded.
	Error   *PageError
	Dialog  Dialog
	Pending map[string]bool
}

// Dialog is the state of the add-service dialog.
type Dialog struct {
	Open  bool
	Name  string
	URL   string
	Error *PageError
}

// PageError is an error as shown to the user.
type PageError struct {
	Kind    string
	Message string
	err     error
}

func (e *PageError) Error() string {
	return e.Message
}

func (e *PageError) Unwrap() error {
	return e.err
}

func newPageError(err error, action string) *PageError {
	kind := kindOf(err)
	var msg string
	switch kind {
	case "timeout":
		msg = action + ": the status API did not answer in time."
	case "decode":
		msg = action + ": the status API sent a response that could not be read."
	case "pending":
		msg = action + ": the same action is already in progress."
	default:
		msg = action + ": " + err.Error()
	}
	return &PageError{Kind: kind, Message: msg, err: err}
}

// AddPending reports whether an add is in flight.
func (p Page) AddPending() bool {
	return p.Pending[AddKey]
}

// DeletePending reports whether deleting id is in flight.
func (p Page) DeletePending(id string) bool {
	return p.Pending[DeleteKey(id)]
}
