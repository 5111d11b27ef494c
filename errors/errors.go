package errors

import "fmt"

var (
	// ErrUnauthorized is returned when no caller identity could be resolved.
	ErrUnauthorized = fmt.Errorf("authentication required")

	// ErrConversationNotFound covers both a nonexistent conversation and a
	// caller who is not a participant. The two cases are deliberately
	// indistinguishable so participant lists cannot be probed.
	ErrConversationNotFound = fmt.Errorf("conversation not found")

	ErrConversationEnded     = fmt.Errorf("conversation has been ended")
	ErrAwaitingClientMessage = fmt.Errorf("professionals can only reply after the client has messaged")

	// ErrProfessionalCannotInitiate guards conversation creation: clients
	// always open the conversation, professionals never cold-message.
	ErrProfessionalCannotInitiate = fmt.Errorf("professionals cannot initiate conversations")

	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrInvalidRole        = fmt.Errorf("role must be CLIENT or PROFESSIONAL")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")

	ErrEmptyScreenList = fmt.Errorf("no blocked phrases have been provided")
)
