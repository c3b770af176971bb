package guraffic

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// ClockHandKind selects which hand of a clock a ClockHand drives.
type ClockHandKind int

const (
	ClockHandHour ClockHandKind = iota
	ClockHandMinute
)

// ParseClockHandKind returns the ClockHandKind with the provided name ("hour" or "minute").
func ParseClockHandKind(name string) (ClockHandKind, error) {
	switch name {
	case "hour":
		return ClockHandHour, nil
	case "minute":
		return ClockHandMinute, nil
	}
	return ClockHandHour, fmt.Errorf("clock hand %q: %w", name, ErrMalformedFile)
}

// ClockHand turns an entity about its local X axis to show the time, like the hand of a clock. Face is the rotation
// of the clock face the hand sits on; it's applied after the hand's own rotation.
type ClockHand struct {
	graph  *Graph
	handle Handle

	Kind ClockHandKind
	Face mgl64.Quat
	Now  func() time.Time // Defaults to time.Now.
}

// NewClockHand creates a ClockHand driving the provided entity.
func NewClockHand(graph *Graph, handle Handle, kind ClockHandKind, face mgl64.Quat) *ClockHand {
	graph.entity(handle)
	return &ClockHand{graph: graph, handle: handle, Kind: kind, Face: face, Now: time.Now}
}

// Handle returns the hand's entity.
func (ch *ClockHand) Handle() Handle {
	return ch.handle
}

// Fraction returns how far around the clock face the hand points at the given time, from 0 up to (but not
// including) 1.
func (ch *ClockHand) Fraction(t time.Time) float64 {
	minutes := (float64(t.Minute()) + float64(t.Second())/60) / 60
	if ch.Kind == ClockHandMinute {
		return minutes
	}
	return (float64(t.Hour()%12) + minutes) / 12
}

// Update sets the hand's rotation from the current time.
func (ch *ClockHand) Update(dt float64) error {

	now := time.Now
	if ch.Now != nil {
		now = ch.Now
	}

	angle := -ch.Fraction(now()) * 2 * math.Pi
	rotation := ch.Face.Mul(mgl64.QuatRotate(angle, WorldRight))

	if err := ch.graph.SetRotation(ch.handle, rotation); err != nil {
		return fmt.Errorf("clock hand: %w", err)
	}

	return nil

}
