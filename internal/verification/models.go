package verification

import (
	"time"

	"github.com/google/uuid"
)

// Request is one untrusted verification submission. It is never stored;
// accepted requests are copied into a Record.
type Request struct {
	HolderName     string `json:"holder_name"`
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	TranscriptHash string `json:"transcript_hash"`
	TxHash         string `json:"tx_hash"`
}

// Record is one accepted verification. Records are append-only: created
// exactly once per successful Verify call, never mutated or deleted.
type Record struct {
	ID             uuid.UUID `json:"id"`
	HolderName     string    `json:"holder_name"`
	Institution    string    `json:"institution"`
	Degree         string    `json:"degree"`
	TranscriptHash string    `json:"transcript_hash"`
	VerifiedAt     time.Time `json:"verified_at"`
}

// Outcome is the result of the two-stage pipeline. Rejections are expected,
// frequent outcomes and are modelled as values, never as errors.
type Outcome int

const (
	RejectedOnChain Outcome = iota
	RejectedOnHash
	Accepted
)

// Status returns the human-readable outcome label used on the wire.
func (o Outcome) Status() string {
	switch o {
	case Accepted:
		return "Verified"
	case RejectedOnHash:
		return "Verification Failed"
	default:
		return "Not Found On Chain"
	}
}

// Verified reports whether the outcome is an acceptance.
func (o Outcome) Verified() bool {
	return o == Accepted
}

// Result carries the outcome of a Verify call. Record is non-nil only when
// the outcome is Accepted.
type Result struct {
	Outcome Outcome
	Record  *Record
}
