package verification

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

// AllowlistValidator recognizes transcript hashes from a fixed set. Entries
// are normalized to lowercase 0x-prefixed hex.
type AllowlistValidator struct {
	mu     sync.RWMutex
	hashes map[string]struct{}
}

// NewAllowlistValidator creates a validator over the given hashes.
func NewAllowlistValidator(hashes []string) *AllowlistValidator {
	v := &AllowlistValidator{hashes: make(map[string]struct{}, len(hashes))}
	for _, h := range hashes {
		v.hashes[normalizeHash(h)] = struct{}{}
	}
	return v
}

// ValidHash reports whether the hash is on the allowlist.
func (v *AllowlistValidator) ValidHash(transcriptHash string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.hashes[normalizeHash(transcriptHash)]
	return ok
}

// Add registers another recognized hash.
func (v *AllowlistValidator) Add(transcriptHash string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hashes[normalizeHash(transcriptHash)] = struct{}{}
}

func normalizeHash(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if !strings.HasPrefix(h, "0x") {
		h = "0x" + h
	}
	return h
}

// ParseAllowlist parses a comma-separated list of 32-byte hex transcript
// hashes, with or without the 0x prefix.
func ParseAllowlist(allowlist string) ([]string, error) {
	split := strings.Split(allowlist, ",")
	result := make([]string, 0, len(split))
	for _, entry := range split {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		raw := strings.TrimPrefix(strings.ToLower(entry), "0x")
		if len(raw) != 64 {
			return nil, fmt.Errorf("invalid transcript hash: %s", entry)
		}
		if _, err := hex.DecodeString(raw); err != nil {
			return nil, fmt.Errorf("invalid transcript hash: %s", entry)
		}
		result = append(result, "0x"+raw)
	}
	return result, nil
}

// TranscriptDigest derives the canonical transcript hash for a credential.
// Fields are length-prefixed before hashing so no two field combinations
// collide on concatenation.
func TranscriptDigest(holderName, institution, degree string) string {
	var data []byte
	for _, field := range []string{holderName, institution, degree} {
		data = append(data, byte(len(field)>>8), byte(len(field)))
		data = append(data, field...)
	}
	return crypto.Keccak256Hash(data).Hex()
}

// SimulatedHashValidator is the stand-in used when no allowlist is
// configured: any hash with the configured prefix is recognized.
type SimulatedHashValidator struct {
	Prefix string
}

// ValidHash reports a match on the configured prefix.
func (v *SimulatedHashValidator) ValidHash(transcriptHash string) bool {
	return strings.HasPrefix(transcriptHash, v.Prefix)
}
