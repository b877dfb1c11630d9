package credential

// Identity is the caller/subject identity used throughout the registry.
// At the HTTP boundary it is derived from the admin API key; inside the
// registry it is only ever compared for equality.
type Identity string

// Certificate represents one issued credential. There is at most one
// certificate per subject; re-issuing replaces the stored value entirely.
type Certificate struct {
	Subject     Identity `json:"subject"`
	HolderName  string   `json:"holder_name"`
	Course      string   `json:"course"`
	Institution string   `json:"institution"`
	IssuedAt    int64    `json:"issued_at"`
	Revoked     bool     `json:"revoked"`
}
