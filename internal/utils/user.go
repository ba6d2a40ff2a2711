package utils

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{M}\p{N}_.@+-]+$`)

// reservedUsernames collide with top-level routes.
var reservedUsernames = map[string]struct{}{
	"new":     {},
	"follow":  {},
	"group":   {},
	"auth":    {},
	"about":   {},
	"media":   {},
	"static":  {},
	"metrics": {},
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidUsername reports whether name is made of letters, digits and @.+-_ only.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

func IsReservedUsername(name string) bool {
	_, ok := reservedUsernames[strings.ToLower(name)]
	return ok
}

// GetDaysSinceJoined counts whole days since the account was created.
func GetDaysSinceJoined(joined time.Time) int {
	return int(time.Since(joined).Hours() / 24)
}
