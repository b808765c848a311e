// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrCampaignNotFound is returned when a campaign id is not in the store.
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrConnectionNotFound is returned when no stored connection has the id.
type ErrConnectionNotFound struct {
	ConnectionID string
}

func (e *ErrConnectionNotFound) Error() string {
	return fmt.Sprintf("connection with ID %s not found", e.ConnectionID)
}

func NewConnectionNotFound(id string) error {
	return &ErrConnectionNotFound{ConnectionID: id}
}

// ErrLeadNotFound is returned when no stored lead has the id.
type ErrLeadNotFound struct {
	LeadID string
}

func (e *ErrLeadNotFound) Error() string {
	return fmt.Sprintf("lead with ID %s not found", e.LeadID)
}

func NewLeadNotFound(id string) error {
	return &ErrLeadNotFound{LeadID: id}
}

// UnsupportedPageError means the current page is not eligible for automation.
type UnsupportedPageError struct {
	URL string
}

func (e *UnsupportedPageError) Error() string {
	return fmt.Sprintf("page not supported for automation: %s", e.URL)
}

func NewUnsupportedPage(url string) error {
	return &UnsupportedPageError{URL: url}
}

// ElementNotFoundError means an expected DOM control was missing.
type ElementNotFoundError struct {
	Element string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found: %s", e.Element)
}

func NewElementNotFound(element string) error {
	return &ElementNotFoundError{Element: element}
}

// AlreadyRunningError is returned on a duplicate start.
type AlreadyRunningError struct {
	CampaignName string
}

func (e *AlreadyRunningError) Error() string {
	if e.CampaignName == "" {
		return "a campaign is already running"
	}
	return fmt.Sprintf("campaign %q is already running", e.CampaignName)
}

func NewAlreadyRunning(name string) error {
	return &AlreadyRunningError{CampaignName: name}
}

// CommunicationError means the target of a command could not be reached.
type CommunicationError struct {
	Target string
	Hint   string
	Err    error
}

func (e *CommunicationError) Error() string {
	msg := fmt.Sprintf("could not reach %s", e.Target)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *CommunicationError) Unwrap() error { return e.Err }

const DefaultCommunicationHint = "make sure the automation agent is running on an open page and reload it"

func NewCommunication(target string, err error) error {
	return &CommunicationError{Target: target, Hint: DefaultCommunicationHint, Err: err}
}

// IsPermanent reports errors that retrying cannot fix.
func IsPermanent(err error) bool {
	var unsupported *UnsupportedPageError
	var running *AlreadyRunningError
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Permanent()
	}
	return errors.As(err, &unsupported) || errors.As(err, &running)
}

// Error codes carried in bus replies.
const (
	CodeUnsupportedPage = "unsupported_page"
	CodeElementNotFound = "element_not_found"
	CodeAlreadyRunning  = "already_running"
	CodeCommunication   = "communication"
	CodeNotFound        = "not_found"
	CodeInvalid         = "invalid"
)

// Code names the kind of err for transport. Unknown errors have no code.
func Code(err error) string {
	var (
		unsupported *UnsupportedPageError
		missing     *ElementNotFoundError
		running     *AlreadyRunningError
		comm        *CommunicationError
		notFound    *ErrCampaignNotFound
		noConn      *ErrConnectionNotFound
		noLead      *ErrLeadNotFound
	)
	switch {
	case errors.As(err, &unsupported):
		return CodeUnsupportedPage
	case errors.As(err, &missing):
		return CodeElementNotFound
	case errors.As(err, &running):
		return CodeAlreadyRunning
	case errors.As(err, &comm):
		return CodeCommunication
	case errors.As(err, &notFound), errors.As(err, &noConn), errors.As(err, &noLead):
		return CodeNotFound
	}
	return ""
}

// RemoteError is an error reported by the other end of the bus.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Permanent reports remote errors that retrying cannot fix.
func (e *RemoteError) Permanent() bool {
	return e.Code == CodeUnsupportedPage || e.Code == CodeAlreadyRunning || e.Code == CodeInvalid
}
