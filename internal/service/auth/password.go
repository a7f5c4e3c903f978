package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier abstracts credential comparison, allowing tests to avoid
// the cost of real bcrypt hashing.
type PasswordVerifier interface {
	// Compare checks a plaintext password against a stored hash.
	// Returns nil on match, an error otherwise.
	Compare(hashedPassword, password string) error
}

// BcryptVerifier implements PasswordVerifier using bcrypt.
type BcryptVerifier struct{}

// NewBcryptVerifier creates a new BcryptVerifier.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Compare implements the PasswordVerifier interface using bcrypt.
func (v *BcryptVerifier) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// HashPassword hashes the given password with bcrypt at the default cost.
// Used by the hash-generator tool to produce admin credentials.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
