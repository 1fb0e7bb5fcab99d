package contract

import "errors"

var (
	ErrWebhookNotConfigured = errors.New("no slack webhook url configured")
	ErrAPIKeyRequired       = errors.New("api key required")
	ErrIndexNotCreated      = errors.New("index not created")
	ErrAgentNotCreated      = errors.New("agent not created")
)
