package credential

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrUnauthorized is returned when a mutating call does not come from the owner.
	ErrUnauthorized = errors.New("caller is not the registry owner")
	// ErrNotFound is returned when no certificate exists for the subject.
	ErrNotFound = errors.New("no certificate for subject")
)

// Registry is the owner-controlled certificate store. The owner identity is
// fixed at construction; every mutating call checks it before touching the map,
// so a rejected call leaves the state untouched.
type Registry struct {
	mu    sync.RWMutex
	owner Identity
	certs map[Identity]Certificate
}

// NewRegistry creates a registry owned by the given identity.
func NewRegistry(owner Identity) *Registry {
	return &Registry{
		owner: owner,
		certs: make(map[Identity]Certificate),
	}
}

// Issue inserts or replaces the certificate for subject. Replacement is
// deliberate "latest wins": a re-issue resets any prior revocation.
func (r *Registry) Issue(caller, subject Identity, holderName, course, institution string, issuedAt int64) error {
	if !r.IsOwner(caller) {
		return ErrUnauthorized
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.certs[subject] = Certificate{
		Subject:     subject,
		HolderName:  holderName,
		Course:      course,
		Institution: institution,
		IssuedAt:    issuedAt,
		Revoked:     false,
	}
	return nil
}

// Get returns the stored certificate for subject. No authorization required.
func (r *Registry) Get(subject Identity) (Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cert, ok := r.certs[subject]
	if !ok {
		return Certificate{}, ErrNotFound
	}
	return cert, nil
}

// Revoke flips the revoked flag for subject. Revoking an already-revoked
// certificate is a no-op success. The flag is never reset by any operation
// short of a full re-issue.
func (r *Registry) Revoke(caller, subject Identity) error {
	if !r.IsOwner(caller) {
		return ErrUnauthorized
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cert, ok := r.certs[subject]
	if !ok {
		return ErrNotFound
	}
	cert.Revoked = true
	r.certs[subject] = cert
	return nil
}

// IsOwner reports whether caller is the registry owner.
func (r *Registry) IsOwner(caller Identity) bool {
	return caller == r.owner
}

// Owner returns the owner identity.
func (r *Registry) Owner() Identity {
	return r.owner
}

// Len returns the number of stored certificates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.certs)
}

// RevokedCount returns the number of revoked certificates.
func (r *Registry) RevokedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, cert := range r.certs {
		if cert.Revoked {
			count++
		}
	}
	return count
}

// Snapshot returns all certificates ordered by subject, for persistence.
func (r *Registry) Snapshot() []Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	certs := make([]Certificate, 0, len(r.certs))
	for _, cert := range r.certs {
		certs = append(certs, cert)
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].Subject < certs[j].Subject })
	return certs
}

// Restore replaces the registry contents with a previously saved snapshot.
// Called once at startup, before the registry is shared.
func (r *Registry) Restore(certs []Certificate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.certs = make(map[Identity]Certificate, len(certs))
	for _, cert := range certs {
		r.certs[cert.Subject] = cert
	}
}
