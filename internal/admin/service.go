package admin

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Per-type anomaly thresholds. Amounts above them get flagged; negative
// amounts are always anomalous.
const (
	TuitionThreshold = 50000.00
	GrantMax         = 10000.00
)

// Service keeps the student transaction log and flags anomalous entries as
// they arrive. The log is insertion-ordered and append-only.
type Service struct {
	mu  sync.RWMutex
	txs []Transaction
	now func() time.Time
}

func NewService() *Service {
	return &Service{now: time.Now}
}

// Add records a transaction, flagging it when the anomaly checks trip.
func (s *Service) Add(studentID string, amount float64, txType string) Transaction {
	tx := Transaction{
		ID:        uuid.New(),
		StudentID: studentID,
		Amount:    amount,
		Type:      txType,
		Timestamp: s.now(),
		Flagged:   anomalous(amount, txType),
	}

	s.mu.Lock()
	s.txs = append(s.txs, tx)
	s.mu.Unlock()

	if tx.Flagged {
		slog.Warn("anomalous transaction flagged", "student", studentID, "type", txType, "amount", amount)
	}
	return tx
}

// anomalous applies the threshold rules. Transaction types compare
// case-insensitively; unknown types only trip on negative amounts.
func anomalous(amount float64, txType string) bool {
	if amount < 0 {
		return true
	}
	switch strings.ToLower(txType) {
	case "tuition":
		return amount > TuitionThreshold
	case "grant":
		return amount > GrantMax
	}
	return false
}

// All returns a copy of the full log in insertion order.
func (s *Service) All() []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

// ByStudent returns the transactions recorded for one student, in insertion
// order.
func (s *Service) ByStudent(studentID string) []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Transaction, 0)
	for _, tx := range s.txs {
		if tx.StudentID == studentID {
			out = append(out, tx)
		}
	}
	return out
}

// Len returns the number of logged transactions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs)
}

// Restore replaces the log with a stored snapshot.
func (s *Service) Restore(txs []Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = make([]Transaction, len(txs))
	copy(s.txs, txs)
}
