package tap

import "errors"

var (
	// ErrAuthorizationDenied reports that the process lacks the accessibility
	// trust required to observe global input.
	ErrAuthorizationDenied = errors.New("accessibility authorization denied for event tap")

	// ErrTapCreationFailed reports that the OS refused to create the listen
	// port despite apparent authorization.
	ErrTapCreationFailed = errors.New("event tap creation failed")

	// ErrInterceptUnsupported reports that the active backend can only
	// observe events, not consume them.
	ErrInterceptUnsupported = errors.New("intercept mode not supported by this event tap backend")

	// ErrAlreadyStarted reports a second Start without an intervening Stop.
	ErrAlreadyStarted = errors.New("event tap already started")
)
