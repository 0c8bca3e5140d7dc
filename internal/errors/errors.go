package appErrors

import "fmt"

// ErrRecipientNotFound is a sentinel error
type ErrRecipientNotFound struct {
	RecipientID string
}

func (e *ErrRecipientNotFound) Error() string {
	return fmt.Sprintf("recipient %s not found", e.RecipientID)
}

func NewRecipientNotFound(id string) error {
	return &ErrRecipientNotFound{RecipientID: id}
}

type ErrDripStepNotFound struct {
	StepID string
}

func (e *ErrDripStepNotFound) Error() string {
	return fmt.Sprintf("drip step %s not found", e.StepID)
}

func NewDripStepNotFound(id string) error {
	return &ErrDripStepNotFound{StepID: id}
}

type ErrScheduledSendNotFound struct {
	SendID string
}

func (e *ErrScheduledSendNotFound) Error() string {
	return fmt.Sprintf("scheduled send %s not found", e.SendID)
}

func NewScheduledSendNotFound(id string) error {
	return &ErrScheduledSendNotFound{SendID: id}
}

// ErrSendNotPending is returned when an operator edit or an engine status
// transition targets a send that already left the pending state.
type ErrSendNotPending struct {
	SendID string
	Status string
}

func (e *ErrSendNotPending) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("scheduled send %s is no longer pending", e.SendID)
	}
	return fmt.Sprintf("scheduled send %s is %s, not pending", e.SendID, e.Status)
}

func NewSendNotPending(id, status string) error {
	return &ErrSendNotPending{SendID: id, Status: status}
}
