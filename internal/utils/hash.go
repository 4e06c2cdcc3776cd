package utils

import "golang.org/x/crypto/bcrypt" // Password hashing

// BcryptHasher hashes passwords and PINs with bcrypt
type BcryptHasher struct {
	Cost int // bcrypt cost, bcrypt.DefaultCost when zero
}

// Hash returns the bcrypt hash of secret
func (h BcryptHasher) Hash(secret string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether secret matches hash
func (BcryptHasher) Compare(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
