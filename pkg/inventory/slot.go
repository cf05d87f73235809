package inventory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentstation/utc"
)

// SlotState is what a run knows about a machine in one source.
type SlotState uint8

const (
	// SlotAbsent means the machine has no row in the source.
	SlotAbsent SlotState = iota
	// SlotPresentNoDate means the machine has rows but none with a usable date.
	SlotPresentNoDate
	// SlotPresentAt means the machine was seen at Slot.At.
	SlotPresentAt
)

func (s SlotState) String() string {
	switch s {
	case SlotAbsent:
		return "absent"
	case SlotPresentNoDate:
		return "present_no_date"
	case SlotPresentAt:
		return "present"
	default:
		return fmt.Sprintf("SlotState(%d)", uint8(s))
	}
}

// Slot is a machine's state in one source. The zero value is absent.
type Slot struct {
	State SlotState
	At    time.Time
}

// Absent returns an absent slot.
func Absent() Slot { return Slot{} }

// PresentNoDate returns a slot for a machine present without a date.
func PresentNoDate() Slot { return Slot{State: SlotPresentNoDate} }

// PresentAt returns a slot for a machine seen at t.
func PresentAt(t time.Time) Slot { return Slot{State: SlotPresentAt, At: t} }

// IsAbsent reports whether the machine is missing from the source.
func (s Slot) IsAbsent() bool { return s.State == SlotAbsent }

// HasDate reports whether the slot carries a real date.
func (s Slot) HasDate() bool { return s.State == SlotPresentAt }

// Observe folds one record's sighting into the slot: the first sighting
// marks the machine present, and only a newer real date moves it forward.
func (s Slot) Observe(r Record) Slot {
	switch {
	case r.Dated() && (s.State != SlotPresentAt || r.LastSeen.After(s.At)):
		return PresentAt(r.LastSeen)
	case s.State == SlotAbsent:
		return PresentNoDate()
	default:
		return s
	}
}

type slotJSON struct {
	State string    `json:"state" yaml:"state"`
	At    *utc.Time `json:"at,omitempty" yaml:"at,omitempty"`
}

func (s Slot) wire() slotJSON {
	w := slotJSON{State: s.State.String()}
	if s.HasDate() {
		w.At = &utc.Time{Time: s.At}
	}
	return w
}

// MarshalJSON writes the slot as {"state": ..., "at": ...}; "at" appears
// only for dated slots.
func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wire())
}

// MarshalYAML mirrors MarshalJSON.
func (s Slot) MarshalYAML() (any, error) {
	return s.wire(), nil
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (s *Slot) UnmarshalJSON(data []byte) error {
	var w slotJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.State {
	case "", "absent":
		*s = Absent()
	case "present_no_date":
		*s = PresentNoDate()
	case "present":
		if w.At == nil {
			return fmt.Errorf("slot: present state without date")
		}
		*s = PresentAt(w.At.Time)
	default:
		return fmt.Errorf("slot: unknown state %q", w.State)
	}
	return nil
}
