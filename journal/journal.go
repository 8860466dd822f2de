package journal

// Journal records undo closures for state mutations so that a sequence of
// changes can be rolled back to an earlier snapshot. It is not safe for
// concurrent use; callers serialize access the same way block execution does.
type Journal struct {
	entries []func()
}

func New() *Journal {
	return &Journal{entries: make([]func(), 0, 64)}
}

// Append registers undo to be run when the journal is reverted past this point.
func (j *Journal) Append(undo func()) {
	j.entries = append(j.entries, undo)
}

// Snapshot returns an identifier for the current journal position.
func (j *Journal) Snapshot() int {
	return len(j.entries)
}

// RevertToSnapshot undoes every change recorded after the snapshot id, newest first.
func (j *Journal) RevertToSnapshot(id int) {
	if id < 0 || id > len(j.entries) {
		return
	}
	for i := len(j.entries) - 1; i >= id; i-- {
		j.entries[i]()
		j.entries[i] = nil
	}
	j.entries = j.entries[:id]
}

// Reset forgets all recorded changes, making them permanent.
func (j *Journal) Reset() {
	for i := range j.entries {
		j.entries[i] = nil
	}
	j.entries = j.entries[:0]
}

func (j *Journal) Length() int {
	return len(j.entries)
}
