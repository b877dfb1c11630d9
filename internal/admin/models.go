package admin

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is one entry in the student payment log. Flagged marks entries
// the anomaly checks singled out for review; the entry is stored either way.
type Transaction struct {
	ID        uuid.UUID `json:"id"`
	StudentID string    `json:"student_id"`
	Amount    float64   `json:"amount"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Flagged   bool      `json:"flagged"`
}
