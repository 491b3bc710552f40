package services

import (
	"context"
	"fmt"
	"time"
)

// LiveItem is one currently-live broadcast discovered on a channel.
// Identity is the video id; all other fields are informational.
type LiveItem struct {
	VideoID      string    `json:"video_id"`
	ChannelID    string    `json:"channel_id"`
	ChannelLabel string    `json:"channel_label,omitempty"`
	Title        string    `json:"title"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// MemberItem is one entry currently present in a target playlist.
//
// ID is the opaque membership handle required for removal, distinct from the
// video id used for comparison.
type MemberItem struct {
	ID      string `json:"id"`
	VideoID string `json:"video_id"`
}

// Source is the narrow contract with the upstream listing/mutation API.
type Source interface {
	// DiscoverLive returns the broadcasts currently live on a channel.
	// Single page, capped result size; transient failures surface to the
	// caller so the executor's retry policy applies.
	DiscoverLive(ctx context.Context, channelID string) ([]LiveItem, error)

	// ListMembers returns every item in the playlist, following continuation
	// tokens internally until exhausted, in server-returned order.
	ListMembers(ctx context.Context, playlistID string) ([]MemberItem, error)

	// AddMember inserts a video into the playlist.
	AddMember(ctx context.Context, playlistID, videoID string) error

	// RemoveMember deletes a playlist entry by its membership handle.
	RemoveMember(ctx context.Context, memberID string) error

	// Name returns the name of the upstream service.
	Name() string
}

// RequestError is an API rejection carrying the upstream response status.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: status %d", e.Status)
	}
	return fmt.Sprintf("API error: status %d: %s", e.Status, e.Message)
}

// Retryable reports whether the rejection is worth another attempt:
// rate limiting and server-side failures are, other client errors are not.
func (e *RequestError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}
