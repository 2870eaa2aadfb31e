package secrets

import (
	"errors"
	"math/rand"
	"sync"
)

// Provider hands out an API credential for a single outgoing call. Rotation
// policy is up to the implementation; callers must not assume successive
// calls return the same value.
type Provider interface {
	Pick() (string, error)
}

// Static is a Provider that always returns the same credential.
type Static string

func (s Static) Pick() (string, error) {
	if s == "" {
		return "", errors.New("credential is not configured")
	}
	return string(s), nil
}

// Rotating picks a random credential from a fixed pool on every call. It is
// used to spread request volume across several free-tier API keys.
type Rotating struct {
	mu   sync.Mutex
	keys []string
	rand *rand.Rand
}

// NewRotating builds a Rotating provider from the given sources, skipping
// sources that resolve to nothing. An error is returned only when no source
// yields a usable credential.
func NewRotating(sources ...Source) (*Rotating, error) {
	keys := make([]string, 0, len(sources))
	for _, src := range sources {
		key, err := LoadOptional(src)
		if err != nil {
			return nil, err
		}
		if key != "" {
			keys = append(keys, key)
		}
	}

	if len(keys) == 0 {
		return nil, errors.New("no credentials resolved for rotation")
	}

	return &Rotating{
		keys: keys,
		rand: rand.New(rand.NewSource(rand.Int63())),
	}, nil
}

func (r *Rotating) Pick() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return "", errors.New("no credentials available")
	}

	return r.keys[r.rand.Intn(len(r.keys))], nil
}

// Len reports how many credentials are in the pool.
func (r *Rotating) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.keys)
}
