package reconcile

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/sightline/pkg/inventory"
)

// Machine is one canonical machine in the consolidated view.
type Machine struct {
	Name string

	// LastSeen is the newest real sighting across every source; zero when
	// the machine was never seen with a date. LastSeenSource names the
	// source it came from.
	LastSeen       time.Time
	LastSeenSource string

	// Sources holds one slot per source file of the run.
	Sources map[string]inventory.Slot
}

// Seen reports whether the machine has a real overall sighting.
func (m Machine) Seen() bool {
	return !m.LastSeen.IsZero()
}

// Slot returns the machine's slot for a source file.
func (m Machine) Slot(sourceFile string) inventory.Slot {
	return m.Sources[sourceFile]
}

type machineWire struct {
	Name           string                    `json:"name" yaml:"name"`
	LastSeen       *utc.Time                 `json:"last_seen,omitempty" yaml:"last_seen,omitempty"`
	LastSeenSource string                    `json:"last_seen_source,omitempty" yaml:"last_seen_source,omitempty"`
	Sources        map[string]inventory.Slot `json:"sources" yaml:"sources"`
}

func (m Machine) wire() machineWire {
	w := machineWire{Name: m.Name, LastSeenSource: m.LastSeenSource, Sources: m.Sources}
	if m.Seen() {
		w.LastSeen = &utc.Time{Time: m.LastSeen}
	}
	return w
}

// MarshalJSON omits last_seen for machines never seen with a date.
func (m Machine) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.wire())
}

// MarshalYAML mirrors MarshalJSON.
func (m Machine) MarshalYAML() (any, error) {
	return m.wire(), nil
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (m *Machine) UnmarshalJSON(data []byte) error {
	var w machineWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Machine{Name: w.Name, LastSeenSource: w.LastSeenSource, Sources: w.Sources}
	if w.LastSeen != nil {
		m.LastSeen = w.LastSeen.Time
	}
	if m.Sources == nil {
		m.Sources = map[string]inventory.Slot{}
	}
	return nil
}

// Consolidate groups records by canonical name into the consolidated view.
//
// Every machine gets a slot for every name in sourceFiles, absent until a
// record from that source is seen. Records are folded in the order given.
// The view is ordered by overall last sighting, newest first, followed by
// machines without a dated sighting in ascending name order.
func Consolidate(recs []inventory.Record, sourceFiles []string) []Machine {
	index := make(map[string]int)
	var view []Machine

	for _, r := range recs {
		i, ok := index[r.Name]
		if !ok {
			slots := make(map[string]inventory.Slot, len(sourceFiles))
			for _, f := range sourceFiles {
				slots[f] = inventory.Absent()
			}
			view = append(view, Machine{Name: r.Name, Sources: slots})
			i = len(view) - 1
			index[r.Name] = i
		}
		m := &view[i]

		m.Sources[r.SourceFile] = m.Sources[r.SourceFile].Observe(r)

		if r.Dated() && (!m.Seen() || r.LastSeen.After(m.LastSeen)) {
			m.LastSeen = r.LastSeen
			m.LastSeenSource = r.SourceFile
		}
	}

	sortView(view)
	if view == nil {
		view = []Machine{}
	}
	return view
}

func sortView(view []Machine) {
	sort.SliceStable(view, func(i, j int) bool {
		a, b := view[i], view[j]
		switch {
		case a.Seen() && b.Seen():
			if !a.LastSeen.Equal(b.LastSeen) {
				return a.LastSeen.After(b.LastSeen)
			}
			return a.Name < b.Name
		case a.Seen():
			return true
		case b.Seen():
			return false
		default:
			return a.Name < b.Name
		}
	})
}
