package verification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ChainLookup reports whether a transaction exists on the distributed ledger.
// It models a variable-latency external call and must honor ctx.
type ChainLookup interface {
	TxExists(ctx context.Context, txHash string) (bool, error)
}

// HashValidator reports whether a transcript content hash is recognized.
type HashValidator interface {
	ValidHash(transcriptHash string) bool
}

// OutcomeReporter receives every pipeline outcome, for metrics.
type OutcomeReporter interface {
	ReportOutcome(o Outcome)
}

// Service runs the two-stage verification pipeline: chain existence first,
// then hash validity, short-circuiting on the first failure. The chain check
// is the expensive step, so a chain rejection never spends local work on the
// hash check.
type Service struct {
	chain    ChainLookup
	hashes   HashValidator
	ledger   *Ledger
	reporter OutcomeReporter
	now      func() time.Time
}

// NewService creates a verification service. reporter may be nil.
func NewService(chain ChainLookup, hashes HashValidator, ledger *Ledger, reporter OutcomeReporter) *Service {
	return &Service{
		chain:    chain,
		hashes:   hashes,
		ledger:   ledger,
		reporter: reporter,
		now:      time.Now,
	}
}

// Verify runs the pipeline over one request. It always terminates with a
// definite outcome: a chain lookup error is treated as a failed check, not a
// pending one. No lock is held across the chain call; the ledger lock is
// taken only for the final append.
func (s *Service) Verify(ctx context.Context, req Request) Result {
	exists, err := s.chain.TxExists(ctx, req.TxHash)
	if err != nil {
		slog.Warn("chain lookup failed, rejecting", "tx", req.TxHash, "err", err)
		exists = false
	}
	if !exists {
		return s.conclude(Result{Outcome: RejectedOnChain})
	}

	if !s.hashes.ValidHash(req.TranscriptHash) {
		return s.conclude(Result{Outcome: RejectedOnHash})
	}

	rec := Record{
		ID:             uuid.New(),
		HolderName:     req.HolderName,
		Institution:    req.Institution,
		Degree:         req.Degree,
		TranscriptHash: req.TranscriptHash,
		VerifiedAt:     s.now(),
	}
	s.ledger.Append(rec)

	slog.Info("verification accepted", "record", rec.ID, "holder", rec.HolderName)
	return s.conclude(Result{Outcome: Accepted, Record: &rec})
}

// Records returns all accepted records in acceptance order.
func (s *Service) Records() []Record {
	return s.ledger.List()
}

func (s *Service) conclude(res Result) Result {
	if s.reporter != nil {
		s.reporter.ReportOutcome(res.Outcome)
	}
	return res
}
