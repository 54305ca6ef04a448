package recording

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// KeyGenerator builds object keys of the form {prefix}/{unixMillis}-{seed}.
// The millisecond component is strictly increasing within a generator, so
// two keys issued in the same clock tick still differ.
type KeyGenerator struct {
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	last int64
}

func NewKeyGenerator(prefix string) *KeyGenerator {
	return NewKeyGeneratorWithClock(prefix, time.Now)
}

// NewKeyGeneratorWithClock is NewKeyGenerator with an injectable clock.
func NewKeyGeneratorWithClock(prefix string, now func() time.Time) *KeyGenerator {
	return &KeyGenerator{
		prefix: strings.Trim(prefix, "/"),
		now:    now,
	}
}

// Next returns a new unique key for seed.
func (g *KeyGenerator) Next(seed string) string {
	g.mu.Lock()
	stamp := g.now().UnixMilli()
	if stamp <= g.last {
		stamp = g.last + 1
	}
	g.last = stamp
	g.mu.Unlock()

	name := fmt.Sprintf("%d-%s", stamp, seed)
	if g.prefix == "" {
		return name
	}
	return g.prefix + "/" + name
}

// sanitizeSeed reduces a client supplied filename to a safe key segment.
func sanitizeSeed(filename string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(base))
	lastDash := false
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-.")
}
