// Package verify resolves an account identifier (mobile money number or
// bank account) to its registered holder name.
package verify

import (
	"context"
	"hash/fnv"
	"time"
)

// Verifier looks up the registered name behind an identifier. Verify blocks
// until the lookup completes or ctx is cancelled.
type Verifier interface {
	Verify(ctx context.Context, method, identifier string) (string, error)
}

// Directory is a stand-in for a real network/bank lookup. It answers after a
// fixed delay with a name picked deterministically from the identifier, so
// the same number always resolves to the same holder.
type Directory struct {
	delay time.Duration
	names []string
}

var defaultNames = []string{
	"Kwame Asante",
	"Ama Mensah",
	"Kofi Boateng",
	"Akosua Osei",
	"Yaw Darko",
	"Efua Appiah",
	"Kwesi Owusu",
	"Abena Frimpong",
}

// NewDirectory builds a Directory with the given simulated lookup latency.
func NewDirectory(delay time.Duration) *Directory {
	return &Directory{delay: delay, names: defaultNames}
}

// Verify resolves the identifier after the configured delay.
func (d *Directory) Verify(ctx context.Context, method, identifier string) (string, error) {
	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}

	h := fnv.New32a()
	h.Write([]byte(method))
	h.Write([]byte(identifier))
	return d.names[h.Sum32()%uint32(len(d.names))], nil
}
