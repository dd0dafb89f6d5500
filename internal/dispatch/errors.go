package dispatch

import "errors"

var (
	// ErrClassification marks input the router refused before any
	// strategy ran: blank lines, oversized pipes, runaway re-entry.
	ErrClassification = errors.New("input cannot be classified")

	// ErrConfirmationDeclined marks a tier 2.5 command the user did not
	// affirm.
	ErrConfirmationDeclined = errors.New("confirmation declined")
)
