package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/model"
)

// bcryptCost is lowered in tests.
var bcryptCost = bcrypt.DefaultCost

// ValidatePIN checks the PIN format and returns an INVALID_PIN error.
func ValidatePIN(pin string) error {
	if err := model.ValidatePIN(pin); err != nil {
		return apperr.Validation(apperr.CodeInvalidPIN, err.Error())
	}
	return nil
}

// HashPIN validates and hashes a PIN. Every write path that stores a PIN
// calls it explicitly.
func HashPIN(pin string) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing pin: %w", err)
	}
	return string(hash), nil
}

// ComparePIN reports whether pin matches the stored hash.
func ComparePIN(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
