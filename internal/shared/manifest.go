package shared

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Target playlist ids follow the YouTube playlist id shape.
var playlistIDPattern = regexp.MustCompile(`^PL[A-Za-z0-9_-]{10,}$`)

// ChannelRef identifies one upstream channel to watch for live broadcasts.
//
// The manifest accepts either a bare channel id string or an object with an
// optional display label; both decode into this canonical shape.
type ChannelRef struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// UnmarshalJSON accepts "UC..." or {"id": "UC...", "label": "..."}.
func (c *ChannelRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		c.ID = id
		c.Label = ""
		return nil
	}

	var obj struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("channel entry must be a string or an object with an id: %w", err)
	}

	c.ID = obj.ID
	c.Label = obj.Label
	return nil
}

// DisplayName returns the label when present, otherwise the channel id.
func (c ChannelRef) DisplayName() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID
}

// Task describes one target playlist and the channels reconciled into it.
type Task struct {
	Name       string       `json:"name"`
	PlaylistID string       `json:"playlist_id"`
	Channels   []ChannelRef `json:"channels"`
}

// Manifest is the validated set of sync tasks loaded from a JSON file.
type Manifest struct {
	Tasks []Task `json:"tasks"`
}

// LoadManifest reads, parses, and validates a task manifest from the specified path.
//
// A malformed manifest aborts the run before any network call is made.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read manifest: %v", ErrInvalidManifest, err)
	}
	return ParseManifest(data)
}

// ParseManifest parses and validates manifest JSON.
func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: failed to parse manifest: %v", ErrInvalidManifest, err)
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	return &manifest, nil
}

// Validate checks the structural requirements of the manifest.
func (m *Manifest) Validate() error {
	if len(m.Tasks) == 0 {
		return fmt.Errorf("%w: at least one task is required", ErrInvalidManifest)
	}

	for i, task := range m.Tasks {
		if strings.TrimSpace(task.Name) == "" {
			return fmt.Errorf("%w: task %d is missing a name", ErrInvalidManifest, i)
		}
		if !playlistIDPattern.MatchString(task.PlaylistID) {
			return fmt.Errorf("%w: task %q has an invalid playlist id %q", ErrInvalidManifest, task.Name, task.PlaylistID)
		}
		if len(task.Channels) == 0 {
			return fmt.Errorf("%w: task %q has no channels", ErrInvalidManifest, task.Name)
		}
		for j, ch := range task.Channels {
			if strings.TrimSpace(ch.ID) == "" {
				return fmt.Errorf("%w: task %q channel %d is missing an id", ErrInvalidManifest, task.Name, j)
			}
		}
	}

	return nil
}
