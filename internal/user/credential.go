package user

import (
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt output starts with "$2a$"/"$2b$"/"$2y$". Anything without the "$2"
// marker is the historical base64 encoding still present in older rows.
const modernHashPrefix = "$2"

type credentialScheme int

const (
	schemeLegacy credentialScheme = iota
	schemeModern
)

// Credential is a stored secret encoding. The scheme is decided once when the
// stored string is parsed, so the rest of the code never sniffs raw strings.
type Credential struct {
	scheme credentialScheme
	value  string
}

func ParseCredential(stored string) Credential {
	if strings.HasPrefix(stored, modernHashPrefix) {
		return Credential{scheme: schemeModern, value: stored}
	}
	return Credential{scheme: schemeLegacy, value: stored}
}

func (c Credential) IsLegacy() bool {
	return c.scheme == schemeLegacy
}

// VerifyResult reports whether the presented secret matched. UpgradedHash is
// set only when a legacy credential was confirmed: it holds the bcrypt
// replacement the caller must persist in place of the legacy value.
type VerifyResult struct {
	Valid        bool
	UpgradedHash string
}

// Verify checks the presented secret against the stored credential. It never
// produces an upgrade for a failed match, so callers can rely on a false
// result having no follow-up writes.
func (c Credential) Verify(secret string) (VerifyResult, error) {
	if c.scheme == schemeModern {
		err := bcrypt.CompareHashAndPassword([]byte(c.value), []byte(secret))
		return VerifyResult{Valid: err == nil}, nil
	}

	// Bare accounts created by the setup-intent flow have an empty
	// credential and can never sign in.
	if c.value == "" || legacyEncode(secret) != c.value {
		return VerifyResult{}, nil
	}

	upgraded, err := HashPassword(secret)
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Valid: true, UpgradedHash: upgraded}, nil
}

func legacyEncode(secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(secret))
}

func HashPassword(password string) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashedPasswordBytes), err
}
