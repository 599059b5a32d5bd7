package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when an account does not exist so unknown
// emails cost the same as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.MinCost)

// HashPassword hashes a plaintext password with configured cost. Costs outside
// bcrypt's range fall back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value. An empty
// hash still performs a comparison.
func ComparePassword(hashed, plain string) error {
	if hashed == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
