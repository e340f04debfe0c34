// v0
// internal/cache/keys.go
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// AllUsers is the scope of reports computed over every user's events.
const AllUsers = "*"

// Scope maps a user id onto its cache scope.
func Scope(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return AllUsers
	}
	return userID
}

// ReportKey builds the key of a windowed report so that equivalent parameter
// sets hash identically. The reference day is part of the key, which keeps a
// report from surviving midnight UTC.
func ReportKey(kind, userID string, windowDays int, basis string, ref time.Time) string {
	return makeKey(
		strings.ToLower(strings.TrimSpace(kind)),
		Scope(userID),
		strconv.Itoa(windowDays),
		strings.ToLower(strings.TrimSpace(basis)),
		canonicalDay(ref),
	)
}

func canonicalDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func makeKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	h := sha1.Sum([]byte(joined))
	return hex.EncodeToString(h[:])
}
