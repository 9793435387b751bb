package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

const secretCost = 10

func HashSecret(secret string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(secret), secretCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// CheckSecret reports whether secret matches the stored hash. An empty
// stored hash never matches: accounts without a credential must not
// authenticate with any secret.
func CheckSecret(storedHash, secret string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(secret)) == nil
}

// bcrypt rejects inputs over 72 bytes and a compact JWT is always longer,
// so refresh tokens are digested before hashing.
func tokenDigest(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

func HashToken(rawToken string) (string, error) {
	return HashSecret(tokenDigest(rawToken))
}

func CheckToken(storedHash, rawToken string) bool {
	if storedHash == "" {
		return false
	}
	return CheckSecret(storedHash, tokenDigest(rawToken))
}
