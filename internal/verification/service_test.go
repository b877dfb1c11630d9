package verification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingChain struct {
	calls  atomic.Int64
	exists bool
	err    error
}

func (c *countingChain) TxExists(ctx context.Context, txHash string) (bool, error) {
	c.calls.Add(1)
	return c.exists, c.err
}

type countingValidator struct {
	calls atomic.Int64
	valid bool
}

func (v *countingValidator) ValidHash(transcriptHash string) bool {
	v.calls.Add(1)
	return v.valid
}

func testRequest() Request {
	return Request{
		HolderName:     "Alice",
		Institution:    "X",
		Degree:         "BSc Computer Science",
		TranscriptHash: "abc123",
		TxHash:         "0xdeadbeef",
	}
}

func Test_VerifyPipeline(t *testing.T) {
	tests := map[string]struct {
		chain           *countingChain
		validator       *countingValidator
		expectedOutcome Outcome
		expectedRecords int
		hashCalls       int64
	}{
		"both checks pass": {
			chain:           &countingChain{exists: true},
			validator:       &countingValidator{valid: true},
			expectedOutcome: Accepted,
			expectedRecords: 1,
			hashCalls:       1,
		},
		"chain rejects, hash never invoked": {
			chain:           &countingChain{exists: false},
			validator:       &countingValidator{valid: true},
			expectedOutcome: RejectedOnChain,
			expectedRecords: 0,
			hashCalls:       0,
		},
		"chain error fails closed": {
			chain:           &countingChain{err: errors.New("rpc unreachable")},
			validator:       &countingValidator{valid: true},
			expectedOutcome: RejectedOnChain,
			expectedRecords: 0,
			hashCalls:       0,
		},
		"hash rejects": {
			chain:           &countingChain{exists: true},
			validator:       &countingValidator{valid: false},
			expectedOutcome: RejectedOnHash,
			expectedRecords: 0,
			hashCalls:       1,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ledger := NewLedger()
			service := NewService(test.chain, test.validator, ledger, nil)

			res := service.Verify(context.Background(), testRequest())

			if res.Outcome != test.expectedOutcome {
				t.Errorf("expected outcome %v, got %v", test.expectedOutcome, res.Outcome)
			}
			if ledger.Len() != test.expectedRecords {
				t.Errorf("expected %d ledger records, got %d", test.expectedRecords, ledger.Len())
			}
			if test.chain.calls.Load() != 1 {
				t.Errorf("expected exactly one chain call, got %d", test.chain.calls.Load())
			}
			if test.validator.calls.Load() != test.hashCalls {
				t.Errorf("expected %d hash calls, got %d", test.hashCalls, test.validator.calls.Load())
			}
			if test.expectedOutcome == Accepted && res.Record == nil {
				t.Error("expected accepted result to carry a record")
			}
			if test.expectedOutcome != Accepted && res.Record != nil {
				t.Error("expected rejected result to carry no record")
			}
		})
	}
}

func Test_AcceptedRecordCopiesRequest(t *testing.T) {
	ledger := NewLedger()
	fixed := time.Date(2025, 8, 7, 12, 0, 0, 0, time.UTC)
	service := NewService(&countingChain{exists: true}, &countingValidator{valid: true}, ledger, nil)
	service.now = func() time.Time { return fixed }

	req := testRequest()
	res := service.Verify(context.Background(), req)

	if res.Outcome != Accepted {
		t.Fatalf("expected acceptance, got %v", res.Outcome)
	}
	rec := res.Record
	if rec.HolderName != req.HolderName || rec.Institution != req.Institution ||
		rec.Degree != req.Degree || rec.TranscriptHash != req.TranscriptHash {
		t.Errorf("record fields do not match request: %+v", rec)
	}
	if !rec.VerifiedAt.Equal(fixed) {
		t.Errorf("expected verified_at %v, got %v", fixed, rec.VerifiedAt)
	}
	if rec.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("expected a generated record id")
	}

	stored := ledger.List()
	if len(stored) != 1 || stored[0].ID != rec.ID {
		t.Errorf("expected the accepted record in the ledger, got %+v", stored)
	}
}

func Test_RecordIDsAreUnique(t *testing.T) {
	ledger := NewLedger()
	service := NewService(&countingChain{exists: true}, &countingValidator{valid: true}, ledger, nil)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		res := service.Verify(context.Background(), testRequest())
		id := res.Record.ID.String()
		if seen[id] {
			t.Fatalf("duplicate record id %s", id)
		}
		seen[id] = true
	}
}

func Test_ConcurrentVerifications(t *testing.T) {
	ledger := NewLedger()
	chain := &SimulatedChainLookup{Prefix: "0x", Delay: time.Millisecond}
	service := NewService(chain, &countingValidator{valid: true}, ledger, nil)

	const workers = 50
	var wg sync.WaitGroup
	var accepted atomic.Int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := testRequest()
			if i%2 == 1 {
				req.TxHash = "missing" // fails the chain check
			}
			if service.Verify(context.Background(), req).Outcome == Accepted {
				accepted.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if accepted.Load() != workers/2 {
		t.Errorf("expected %d acceptances, got %d", workers/2, accepted.Load())
	}
	if ledger.Len() != workers/2 {
		t.Errorf("expected ledger to hold only accepted requests, got %d", ledger.Len())
	}
}

type recordingReporter struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *recordingReporter) ReportOutcome(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func Test_EveryOutcomeIsReported(t *testing.T) {
	reporter := &recordingReporter{}
	ledger := NewLedger()
	service := NewService(&countingChain{exists: true}, &countingValidator{valid: false}, ledger, reporter)

	service.Verify(context.Background(), testRequest())

	if len(reporter.outcomes) != 1 || reporter.outcomes[0] != RejectedOnHash {
		t.Errorf("expected one RejectedOnHash report, got %v", reporter.outcomes)
	}
}
