package repository

import "errors"

var (
	// ErrRunNotFound indicates no stored run matches the request
	ErrRunNotFound = errors.New("run not found")

	// ErrSourceUnavailable indicates no backend is configured for a locator kind
	ErrSourceUnavailable = errors.New("image source unavailable")
)
