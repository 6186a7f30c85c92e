package session

import "errors"

// Hub operation failures. Each maps 1:1 to an error frame sent to the
// originating connection; none of them affect other connections.
var (
	ErrInvalidDocumentID = errors.New("invalid document ID format")
	ErrRoomFull          = errors.New("document has reached maximum user limit")
	ErrContentTooLarge   = errors.New("document size too large")
	ErrInvalidTitle      = errors.New("invalid document title")
	ErrDocumentNotFound  = errors.New("document not found")
)
