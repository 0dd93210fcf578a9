package interaction

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/cropkit/pkg/types"
)

// Gesture is the kind of interaction a pointer-down starts.
type Gesture int

const (
	GestureNone Gesture = iota
	GestureMove
	GestureResize
)

func (g Gesture) String() string {
	switch g {
	case GestureMove:
		return "move"
	case GestureResize:
		return "resize"
	default:
		return "none"
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Gesture) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "none":
		*g = GestureNone
	case "move", "drag":
		*g = GestureMove
	case "resize":
		*g = GestureResize
	default:
		return fmt.Errorf("unknown gesture: %q", text)
	}
	return nil
}

// EventKind tags a pointer event. The zero value is not a valid kind.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventMove
	EventStart
	EventEnd
	EventCancel
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	case EventCancel:
		return "cancel"
	case EventMove:
		return "move"
	default:
		return "unknown"
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EventKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "start", "down":
		*k = EventStart
	case "move":
		*k = EventMove
	case "end", "up":
		*k = EventEnd
	case "cancel":
		*k = EventCancel
	default:
		return fmt.Errorf("unknown event kind: %q", text)
	}
	return nil
}

// Event is one pointer sample from the host input layer. Gesture and Handle
// are only read on start events; a start with neither is hit-tested against
// the current region.
type Event struct {
	Kind     EventKind    `yaml:"kind"`
	Position types.Point  `yaml:",inline"`
	Gesture  Gesture      `yaml:"gesture,omitempty"`
	Handle   types.Handle `yaml:"handle,omitempty"`
}

// LoadScript reads a YAML list of pointer events, as recorded from a host or
// written by hand:
//
//	- {kind: start, x: 120, y: 90, handle: bottom-right}
//	- {kind: move, x: 160, y: 110}
//	- {kind: end}
func LoadScript(r io.Reader) ([]Event, error) {
	var events []Event
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&events); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse gesture script: %w", err)
	}
	for i, ev := range events {
		if ev.Kind == EventUnknown {
			return nil, fmt.Errorf("gesture script entry %d: missing kind", i+1)
		}
	}
	return events, nil
}
