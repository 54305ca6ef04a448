package sessionid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const prefix = "sess_"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a sess_* ULID string.
func New() string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	return prefix + strings.ToLower(id.String())
}

// IsValid reports whether the string is a sess_* ULID.
func IsValid(value string) bool {
	if !strings.HasPrefix(value, prefix) {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse strips the sess_ prefix and returns the ULID.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, prefix)
	value = strings.TrimPrefix(value, "SESS_")
	return ulid.Parse(value)
}
