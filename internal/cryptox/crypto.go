// Package cryptox wraps bcrypt for member password storage.
package cryptox

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for new hashes.
var Cost = bcrypt.DefaultCost

// ErrMismatch is returned by VerifyPassword when password does not match hash.
var ErrMismatch = errors.New("password mismatch")

// HashPassword returns a salted bcrypt hash of password. bcrypt only reads
// the first 72 bytes; longer passwords are rejected rather than truncated.
func HashPassword(password []byte) (string, error) {
	h, err := bcrypt.GenerateFromPassword(password, Cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyPassword compares password with hash in constant time.
// It returns ErrMismatch on a wrong password and another error when hash is
// not a bcrypt hash.
func VerifyPassword(hash string, password []byte) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), password)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
