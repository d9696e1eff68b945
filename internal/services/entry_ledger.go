package services

import "sync"

// EntryLedger tracks the participants of a single giveaway and the draw
// weight of each. It is owned by exactly one giveaway and knows nothing about
// lifecycle state; the service gates writes on the record's state machine.
type EntryLedger struct {
	mu      sync.RWMutex
	entries map[string]int
}

// NewEntryLedger creates an empty ledger.
func NewEntryLedger() *EntryLedger {
	return &EntryLedger{
		entries: make(map[string]int),
	}
}

// Add inserts or overwrites a participant's weight and reports whether the
// participant was already present.
func (l *EntryLedger) Add(participantID string, weight int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, present := l.entries[participantID]
	l.entries[participantID] = weight
	return present
}

// Remove deletes a participant's entry and reports whether it existed.
// Removing a non-member is a no-op.
func (l *EntryLedger) Remove(participantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, present := l.entries[participantID]
	delete(l.entries, participantID)
	return present
}

// Snapshot returns a point-in-time copy of the ledger. The copy is safe to
// read, and hand to the winner selector, without holding the ledger's lock.
func (l *EntryLedger) Snapshot() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := make(map[string]int, len(l.entries))
	for id, weight := range l.entries {
		snapshot[id] = weight
	}
	return snapshot
}

// Count returns the number of distinct participants.
func (l *EntryLedger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
