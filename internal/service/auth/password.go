package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher defines the interface for one-way password hashing.
type PasswordHasher interface {
	// Hash returns the salted one-way hash of the plaintext password.
	Hash(password string) (string, error)
}

// PasswordVerifier defines the interface for comparing passwords.
type PasswordVerifier interface {
	// Compare compares a hashed password with its possible plaintext
	// equivalent. Returns nil on success, or an error on mismatch.
	Compare(hashedPassword, password string) error
}

// BcryptHasher implements PasswordHasher and PasswordVerifier using
// bcrypt with the default cost.
type BcryptHasher struct{}

// NewBcryptHasher creates a new BcryptHasher.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{}
}

// Hash implements the PasswordHasher interface using bcrypt.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare implements the PasswordVerifier interface using bcrypt.
func (h *BcryptHasher) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
