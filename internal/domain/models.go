package domain

import (
	"fmt"
	"time"
)

// PlaybackState represents the current state of the stream player
type PlaybackState int

const (
	// StateStopped indicates the player was never started or has been released
	StateStopped PlaybackState = iota
	// StatePlaying indicates the stream is currently playing
	StatePlaying
	// StatePaused indicates the stream is paused
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// MarshalText renders the state as its lowercase name
func (s PlaybackState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a lowercase state name
func (s *PlaybackState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "stopped":
		*s = StateStopped
	case "playing":
		*s = StatePlaying
	case "paused":
		*s = StatePaused
	default:
		return fmt.Errorf("unknown playback state %q", string(text))
	}
	return nil
}

// Command is a play/pause request. Its value doubles as the notification action key.
type Command string

const (
	CommandPlay  Command = "play"
	CommandPause Command = "pause"
)

// Label is the human readable caption for the command
func (c Command) Label() string {
	switch c {
	case CommandPlay:
		return "Play"
	case CommandPause:
		return "Pause"
	default:
		return string(c)
	}
}

// ParseCommand maps an action key back to a Command
func ParseCommand(s string) (Command, bool) {
	switch Command(s) {
	case CommandPlay, CommandPause:
		return Command(s), true
	}
	return "", false
}

// InverseAction returns the command a user would issue next from the given state
func InverseAction(s PlaybackState) Command {
	if s == StatePlaying {
		return CommandPause
	}
	return CommandPlay
}

// NowPlaying is the value published after every successful metadata poll
type NowPlaying struct {
	// Title of the current track as reported by the status endpoint
	Title string `json:"title"`
	// Fallback is true when the endpoint did not carry a usable song field
	Fallback bool `json:"fallback"`
	// FetchedAt is when the poll completed
	FetchedAt time.Time `json:"fetchedAt"`
}

// Snapshot is the controller view returned by every playback operation
type Snapshot struct {
	State PlaybackState `json:"state"`
	Title string        `json:"title"`
}

// Notification describes the persistent status notification
type Notification struct {
	Summary string
	Body    string
	Action  Command
}

// BufferConfig holds the native player buffering targets
type BufferConfig struct {
	// Target is how far ahead the player tries to keep buffered
	Target time.Duration
	// Max caps the buffered duration
	Max time.Duration
	// MinForPlayback is required before playback first starts
	MinForPlayback time.Duration
	// MinAfterRebuffer is required before resuming after a stall
	MinAfterRebuffer time.Duration
}
