package core

import "strings"

// TicketAssignment pairs a queue ticket number with the desk serving it.
type TicketAssignment struct {
	Number string
	Desk   string
}

// NewAssignment trims both fields and validates the result.
func NewAssignment(number, desk string) (TicketAssignment, error) {
	a := TicketAssignment{
		Number: strings.TrimSpace(number),
		Desk:   strings.TrimSpace(desk),
	}
	if err := a.Validate(); err != nil {
		return TicketAssignment{}, err
	}
	return a, nil
}

// Validate reports ErrInvalidAssignment when number or desk is blank.
func (a TicketAssignment) Validate() error {
	if strings.TrimSpace(a.Number) == "" || strings.TrimSpace(a.Desk) == "" {
		return ErrInvalidAssignment
	}
	return nil
}
