package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher turns a password into the value kept in the credential table and
// checks a login attempt against it.
type Hasher interface {
	Hash(password string) (string, error)
	Matches(stored, password string) bool
}

// PlainHasher stores passwords verbatim. It keeps the credential table
// readable by older clients of the same storage and is NOT safe for real users.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlainHasher) Matches(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// BcryptHasher stores bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (BcryptHasher) Matches(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// NewHasher maps a config scheme name to a Hasher.
func NewHasher(scheme string) (Hasher, error) {
	switch scheme {
	case "plain", "":
		return PlainHasher{}, nil
	case "bcrypt":
		return BcryptHasher{}, nil
	}
	return nil, errors.New("unknown password hashing scheme " + scheme)
}
