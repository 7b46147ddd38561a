package domain

import "errors"

// Error taxonomy for a bloom evaluation. Components wrap these sentinels with
// fmt.Errorf("...: %w", ...) so callers can classify failures with errors.Is
// while the message stays safe to show to a user.
var (
	// ErrValidation marks a malformed or incomplete request. No upstream
	// call is attempted once validation fails.
	ErrValidation = errors.New("invalid request")

	// ErrUpstreamAuth marks a failed credential exchange with a provider.
	ErrUpstreamAuth = errors.New("upstream authentication failed")

	// ErrUpstreamRequest marks a non-success response from a provider.
	ErrUpstreamRequest = errors.New("upstream request failed")

	// ErrTaskFailed marks a vegetation task that reached the provider's
	// terminal error status.
	ErrTaskFailed = errors.New("vegetation task failed")

	// ErrTaskTimeout marks a vegetation task that did not complete within
	// the polling budget.
	ErrTaskTimeout = errors.New("vegetation task timed out")

	// ErrDataFormat marks a provider response that could not be parsed into
	// the expected shape, e.g. a bundle without a tabular file.
	ErrDataFormat = errors.New("unexpected upstream data format")
)
