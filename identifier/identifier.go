// Package identifier mints the short public identifiers printed on
// applications, e.g. MPA7K2Q9Z.
package identifier

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
)

const (
	// Alphabet holds the 36 symbols a suffix is drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// SuffixLength is the number of random symbols after the prefix.
	SuffixLength = 6

	DefaultPrefix = "MPA"
)

// ErrCollision is returned by an insert callback to signal that the
// candidate is taken and a new one should be drawn.
var ErrCollision = errors.New("identifier already in use")

var (
	alphabetSize = big.NewInt(int64(len(Alphabet)))
	prefixRe     = regexp.MustCompile(`^[A-Z0-9]{1,8}$`)
)

// Generate returns prefix followed by SuffixLength symbols drawn uniformly
// from Alphabet.
func Generate(prefix string) (string, error) {
	buf := make([]byte, 0, len(prefix)+SuffixLength)
	buf = append(buf, prefix...)
	for i := 0; i < SuffixLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf = append(buf, Alphabet[n.Int64()])
	}
	return string(buf), nil
}

// Valid reports whether id is prefix plus SuffixLength alphabet symbols.
func Valid(prefix, id string) bool {
	if len(id) != len(prefix)+SuffixLength || id[:len(prefix)] != prefix {
		return false
	}
	for i := len(prefix); i < len(id); i++ {
		c := id[i]
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// Observer is told about every collision an Allocator retries past.
type Observer func(prefix string)

// Allocator draws identifiers under one prefix.
type Allocator struct {
	prefix      string
	generate    func(prefix string) (string, error)
	onCollision Observer
}

type Option func(*Allocator)

// WithCollisionObserver registers fn to be called on each retried collision.
func WithCollisionObserver(fn Observer) Option {
	return func(a *Allocator) { a.onCollision = fn }
}

// WithGenerator replaces the random source. Tests use it to force collisions.
func WithGenerator(fn func(prefix string) (string, error)) Option {
	return func(a *Allocator) { a.generate = fn }
}

// NewAllocator validates prefix (1-8 upper-case letters or digits).
func NewAllocator(prefix string, opts ...Option) (*Allocator, error) {
	if !prefixRe.MatchString(prefix) {
		return nil, fmt.Errorf("invalid identifier prefix %q", prefix)
	}
	a := &Allocator{prefix: prefix, generate: Generate}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Allocator) Prefix() string { return a.prefix }

// Next draws one candidate without any uniqueness check.
func (a *Allocator) Next() (string, error) {
	return a.generate(a.prefix)
}

// Allocate draws candidates and hands each to insert until one is accepted.
// insert must create the record atomically against a unique index and
// return ErrCollision (or an error wrapping it) when the id is taken. Any
// other error is returned unchanged. There is no retry bound; the loop only
// stops early when ctx is done.
func (a *Allocator) Allocate(ctx context.Context, insert func(ctx context.Context, id string) error) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id, err := a.Next()
		if err != nil {
			return "", err
		}
		err = insert(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrCollision) {
			return "", err
		}
		if a.onCollision != nil {
			a.onCollision(a.prefix)
		}
	}
}
