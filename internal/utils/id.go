package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TempIDPrefix marks client-issued message ids. Server ids never carry it.
const TempIDPrefix = "temp-"

// NewTempID returns an id for an optimistic message created at now.
func NewTempID(now time.Time) string {
	return TempIDPrefix + strconv.FormatInt(now.UnixNano(), 10) + "-" + randomSuffix()
}

// NewCorrelationID returns a token pairing a request with its acknowledgement.
func NewCorrelationID() string {
	return uuid.NewString()
}

func randomSuffix() string {
	const size = 6

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	// Fall back to a uuid fragment if crypto/rand is unavailable.
	return uuid.NewString()[:size*2]
}
