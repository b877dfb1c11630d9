package verification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func Test_SimulatedChainLookup(t *testing.T) {
	chain := &SimulatedChainLookup{Prefix: "0x"}

	tests := map[string]struct {
		txHash   string
		expected bool
	}{
		"prefixed hash exists":  {txHash: "0xdeadbeef", expected: true},
		"unprefixed is missing": {txHash: "deadbeef", expected: false},
		"empty is missing":      {txHash: "", expected: false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			exists, err := chain.TxExists(context.Background(), test.txHash)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if exists != test.expected {
				t.Errorf("expected exists=%v, got %v", test.expected, exists)
			}
		})
	}
}

func Test_SimulatedChainLookupHonorsContext(t *testing.T) {
	chain := &SimulatedChainLookup{Prefix: "0x", Delay: time.Minute}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	exists, err := chain.TxExists(ctx, "0xdeadbeef")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if exists {
		t.Error("expected cancelled lookup to report not found")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("lookup did not return promptly on cancellation: %v", elapsed)
	}
}

func Test_ValidTxHash(t *testing.T) {
	valid := "0x" + strings.Repeat("ab", 32)
	tests := map[string]struct {
		txHash   string
		expected bool
	}{
		"well formed":    {txHash: valid, expected: true},
		"too short":      {txHash: "0xabcd", expected: false},
		"missing prefix": {txHash: strings.Repeat("ab", 33), expected: false},
		"not hex":        {txHash: "0x" + strings.Repeat("zz", 32), expected: false},
		"empty":          {txHash: "", expected: false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := validTxHash(test.txHash); got != test.expected {
				t.Errorf("validTxHash(%q) = %v, expected %v", test.txHash, got, test.expected)
			}
		})
	}
}
