// Package status holds the shared assistant state polled by external
// renderers: a small set of named string slots behind one mutex. Cycles never
// overlap (the listener gates on Busy), so each slot has a single writer at a
// time.
package status

import (
	"strings"
	"sync"
)

// Assistant status labels.
const (
	Listening       = "Listening..."
	Thinking        = "Thinking..."
	Searching       = "Searching..."
	Answering       = "Answering..."
	GeneratingImage = "Generating Image..."
	Available       = "Available..."
	Error           = "Error!"
	ExitRequested   = "EXIT_REQUESTED"

	executingPrefix = "Executing: "
)

// Slot names.
const (
	SlotStatus  = "status"
	SlotMic     = "mic"
	SlotDisplay = "display"
)

// Executing formats the status label for an in-flight automation command.
func Executing(cmd string) string {
	return executingPrefix + cmd
}

// Store is the process-wide status channel. Set values are immediately
// visible to subsequent Get calls.
type Store struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewStore returns a Store with the assistant available and the mic off.
func NewStore() *Store {
	return &Store{
		slots: map[string]string{
			SlotStatus:  Available,
			SlotMic:     "false",
			SlotDisplay: "",
		},
	}
}

// Set writes a slot value.
func (s *Store) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[name] = value
}

// Get reads a slot value; missing slots read as "".
func (s *Store) Get(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[name]
}

// Snapshot returns a copy of all slots for the polling renderer.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.slots))
	for k, v := range s.slots {
		out[k] = v
	}
	return out
}

// SetStatus sets the assistant status label.
func (s *Store) SetStatus(label string) { s.Set(SlotStatus, label) }

// Status returns the assistant status label.
func (s *Store) Status() string { return s.Get(SlotStatus) }

// SetMic flips the microphone slot.
func (s *Store) SetMic(on bool) {
	if on {
		s.Set(SlotMic, "true")
	} else {
		s.Set(SlotMic, "false")
	}
}

// MicOn reports whether the microphone slot is on.
func (s *Store) MicOn() bool { return s.Get(SlotMic) == "true" }

// ShowText writes a line to the display slot.
func (s *Store) ShowText(text string) { s.Set(SlotDisplay, text) }

// Busy reports whether a cycle is in progress. The listener must not start a
// new cycle while this holds, which is what makes the slots single-writer.
func (s *Store) Busy() bool {
	switch label := s.Status(); {
	case label == Thinking, label == Searching, label == Answering, label == GeneratingImage:
		return true
	case strings.HasPrefix(label, executingPrefix):
		return true
	default:
		return false
	}
}

// ExitRequested reports whether a terminal exit directive has been handled.
func (s *Store) ExitRequested() bool { return s.Status() == ExitRequested }
