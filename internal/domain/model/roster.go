package model

// Roster is a user-curated set of riders (a "custom team").
type Roster struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Riders []string `json:"riders"`
}

// Has reports whether riderID is part of the roster.
func (r Roster) Has(riderID string) bool {
	return r.indexOf(riderID) >= 0
}

func (r Roster) indexOf(riderID string) int {
	for i, id := range r.Riders {
		if id == riderID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (r Roster) Clone() Roster {
	riders := make([]string, len(r.Riders))
	copy(riders, r.Riders)
	return Roster{ID: r.ID, Name: r.Name, Riders: riders}
}

// CloneRosters deep-copies a roster collection.
func CloneRosters(in []Roster) []Roster {
	out := make([]Roster, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
