package event

import "errors"

// Sentinel errors for the event bus.
var (
	ErrBusNotRunning       = errors.New("event bus is not running")
	ErrBusAlreadyRunning   = errors.New("event bus is already running")
	ErrInvalidTopic        = errors.New("invalid topic")
	ErrNilHandler          = errors.New("handler cannot be nil")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)
