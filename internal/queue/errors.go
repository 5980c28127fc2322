package queue

import "fmt"

// Severity levels for user-displayable notifications.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityDanger  = "danger"
)

// Kind identifies a validation failure class.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindNoActiveWait     Kind = "no_active_wait"
	KindAlreadyCompleted Kind = "already_completed"
	KindPolicyViolation  Kind = "policy_violation"
	KindRoomUnavailable  Kind = "room_unavailable"
	KindNoRoomAvailable  Kind = "no_room_available"
	KindNoOp             Kind = "no_op"
)

// Error is a validation failure the user can act on. It aborts the
// coordination before any mutation and is rendered as a non-fatal
// notification rather than a generic fault. Unexpected storage failures
// are plain errors, surfaced as a sticky generic system notification.
type Error struct {
	Kind     Kind
	Title    string
	Message  string
	Severity string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Notification is the structured, user-displayable outcome of a failed (or
// fatal) coordination attempt. Sticky notifications must be dismissed
// manually.
type Notification struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Sticky   bool   `json:"sticky"`
}

// Notification renders the error for display.
func (e *Error) Notification() Notification {
	return Notification{
		Title:    e.Title,
		Message:  e.Message,
		Severity: e.Severity,
	}
}

// SystemNotification is shown for unexpected failures: generic and sticky,
// with the real cause kept server-side.
func SystemNotification() Notification {
	return Notification{
		Title:    "System Error",
		Message:  "Cannot perform coordination. Please try again or contact support.",
		Severity: SeverityDanger,
		Sticky:   true,
	}
}

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Title: "Error", Message: message, Severity: SeverityDanger}
}

func noActiveWait() *Error {
	return &Error{Kind: KindNoActiveWait, Title: "Notification", Message: "No service waiting", Severity: SeverityWarning}
}

func alreadyCompleted(service string) *Error {
	return &Error{
		Kind:     KindAlreadyCompleted,
		Title:    "Error",
		Message:  fmt.Sprintf("Service %s has already been completed", service),
		Severity: SeverityDanger,
	}
}

func policyViolation(message string) *Error {
	return &Error{Kind: KindPolicyViolation, Title: "Error", Message: message, Severity: SeverityDanger}
}

func roomUnavailable(room string) *Error {
	return &Error{
		Kind:     KindRoomUnavailable,
		Title:    "Error",
		Message:  fmt.Sprintf("Room %s is closed or under maintenance", room),
		Severity: SeverityDanger,
	}
}

func noRoomAvailable(service string) *Error {
	return &Error{
		Kind:     KindNoRoomAvailable,
		Title:    "Error",
		Message:  fmt.Sprintf("No available room for service %s", service),
		Severity: SeverityDanger,
	}
}

func noOp(message string) *Error {
	return &Error{Kind: KindNoOp, Title: "Notification", Message: message, Severity: SeverityInfo}
}
