package domain

import "errors"

var (
	// ErrAuthFailure is returned when the search API rejects the session (401/403)
	ErrAuthFailure = errors.New("search API rejected session credentials")

	// ErrFetchFailure is returned for transport errors, timeouts and non-2xx responses
	ErrFetchFailure = errors.New("search API request failed")

	// ErrMalformedResponse is returned when a response body cannot be decoded
	ErrMalformedResponse = errors.New("malformed search API response")

	// ErrNoProducts is returned when a whole run collected no rows
	ErrNoProducts = errors.New("no products collected")
)
