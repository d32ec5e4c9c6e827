package domain

import (
	"encoding/json"
	"testing"
)

func TestPlaybackStateText(t *testing.T) {
	for _, state := range []PlaybackState{StateStopped, StatePlaying, StatePaused} {
		t.Run(state.String(), func(t *testing.T) {
			data, err := json.Marshal(Snapshot{State: state, Title: "Band - Track"})
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}

			var got Snapshot
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if got.State != state {
				t.Errorf("Expected %s, got %s (json %s)", state, got.State, data)
			}
		})
	}

	var s PlaybackState
	if err := s.UnmarshalText([]byte("rewinding")); err == nil {
		t.Error("Expected error for unknown state, got nil")
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		key       string
		wantCmd   Command
		wantOK    bool
		wantLabel string
	}{
		{"play", CommandPlay, true, "Play"},
		{"pause", CommandPause, true, "Pause"},
		{"default", "", false, ""},
		{"", "", false, ""},
	}

	for _, tt := range tests {
		cmd, ok := ParseCommand(tt.key)
		if cmd != tt.wantCmd || ok != tt.wantOK {
			t.Errorf("ParseCommand(%q): expected (%q, %v), got (%q, %v)", tt.key, tt.wantCmd, tt.wantOK, cmd, ok)
		}
		if ok && cmd.Label() != tt.wantLabel {
			t.Errorf("Label(%q): expected %q, got %q", cmd, tt.wantLabel, cmd.Label())
		}
	}

	if got := Command("stop").Label(); got != "stop" {
		t.Errorf("Expected unknown command label to echo its key, got %q", got)
	}
}

func TestInverseAction(t *testing.T) {
	tests := []struct {
		state PlaybackState
		want  Command
	}{
		{StateStopped, CommandPlay},
		{StatePlaying, CommandPause},
		{StatePaused, CommandPlay},
	}
	for _, tt := range tests {
		if got := InverseAction(tt.state); got != tt.want {
			t.Errorf("InverseAction(%s): expected %s, got %s", tt.state, tt.want, got)
		}
	}
}
