package verification

import "sync"

// Ledger is the append-only collection of accepted verification records.
// Appends preserve insertion order; reads return a snapshot and never observe
// a partially-applied append.
type Ledger struct {
	mu      sync.RWMutex
	records []Record
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds a record at the end of the ledger.
func (l *Ledger) Append(rec Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// List returns a copy of all records in insertion order.
func (l *Ledger) List() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Restore replaces the ledger contents with a previously saved snapshot.
// Called once at startup, before the ledger is shared.
func (l *Ledger) Restore(records []Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = make([]Record, len(records))
	copy(l.records, records)
}
