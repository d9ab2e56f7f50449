package atm

import "errors"

var (
	// ErrInvalidAmount is returned when a withdrawal or deposit amount is not positive.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrIncorrectOldPIN is returned by a PIN change whose current PIN does not match.
	ErrIncorrectOldPIN = errors.New("incorrect old PIN")

	// ErrPINMismatch is returned when the new PIN and its confirmation differ.
	ErrPINMismatch = errors.New("new PIN and confirmation do not match")

	// ErrUnknownCard is returned when the card reader has no account for a card.
	ErrUnknownCard = errors.New("unknown card")

	// ErrCardMismatch is returned when a retry presents a different card than the first attempt.
	ErrCardMismatch = errors.New("card does not match the card in the session")

	// ErrCardRetained is returned for any request against a session whose card was retained.
	ErrCardRetained = errors.New("card retained")

	// ErrNotAuthenticated is returned for operations attempted outside an active session.
	ErrNotAuthenticated = errors.New("session is not authenticated")

	// ErrAlreadyAuthenticated is returned by a login attempt on an active session.
	ErrAlreadyAuthenticated = errors.New("session is already authenticated")

	// ErrSessionClosed is returned once a session has been terminated.
	ErrSessionClosed = errors.New("session is closed")

	// ErrUnsupportedOperation is returned for an operation kind the processor does not know.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)
