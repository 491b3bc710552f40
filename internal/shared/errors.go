package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig   = fmt.Errorf("configuration not found")
	ErrInvalidConfig   = fmt.Errorf("invalid configuration")
	ErrInvalidManifest = fmt.Errorf("invalid task manifest")

	// Authentication errors
	ErrAuthFailed              = fmt.Errorf("authentication failed")
	ErrRefreshFailed           = fmt.Errorf("token refresh failed")
	ErrReauthorizationRequired = fmt.Errorf("refresh token rejected, re-authorization required")
	ErrNoRefreshToken          = fmt.Errorf("no refresh token available")

	// API and service errors
	ErrRequestFailed      = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Snapshot store errors
	ErrSnapshotMissing = fmt.Errorf("no run snapshot recorded")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
