package auth

import (
	"github.com/dmitrijs2005/filevault/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword returns a bcrypt digest of password.
func HashPassword(password string) (string, error) {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	digest, err := bcrypt.GenerateFromPassword(pw, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// CheckPassword reports whether password matches digest.
func CheckPassword(digest, password string) bool {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	return bcrypt.CompareHashAndPassword([]byte(digest), pw) == nil
}
