package verses

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrExhausted is returned when every catalog reference is already used.
var ErrExhausted = errors.New("every catalog reference has been used")

// Ledger exposes the used-reference keys the selector must avoid.
type Ledger interface {
	UsedKeys(ctx context.Context) (map[string]struct{}, error)
}

// Selector picks unused references from a catalog.
type Selector struct {
	catalog []Reference
	ledger  Ledger
	intn    func(n int) int
}

// SelectorOption customizes a Selector.
type SelectorOption func(*Selector)

// WithCatalog replaces the embedded catalog.
func WithCatalog(refs []Reference) SelectorOption {
	return func(s *Selector) {
		s.catalog = append([]Reference(nil), refs...)
	}
}

// WithRand makes selection deterministic for tests.
func WithRand(r *rand.Rand) SelectorOption {
	return func(s *Selector) {
		if r != nil {
			s.intn = r.IntN
		}
	}
}

// NewSelector builds a selector over the embedded catalog.
func NewSelector(ledger Ledger, opts ...SelectorOption) (*Selector, error) {
	refs, err := Catalog()
	if err != nil {
		return nil, err
	}
	s := &Selector{catalog: refs, ledger: ledger, intn: rand.IntN}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Remaining reports how many catalog references are not yet used.
func (s *Selector) Remaining(ctx context.Context) (int, error) {
	unused, err := s.unused(ctx)
	if err != nil {
		return 0, err
	}
	return len(unused), nil
}

// SelectUnused returns a random reference absent from the ledger.
func (s *Selector) SelectUnused(ctx context.Context) (Reference, error) {
	unused, err := s.unused(ctx)
	if err != nil {
		return Reference{}, err
	}
	if len(unused) == 0 {
		return Reference{}, ErrExhausted
	}
	return unused[s.intn(len(unused))], nil
}

func (s *Selector) unused(ctx context.Context) ([]Reference, error) {
	used := map[string]struct{}{}
	if s.ledger != nil {
		keys, err := s.ledger.UsedKeys(ctx)
		if err != nil {
			return nil, fmt.Errorf("load used references: %w", err)
		}
		used = keys
	}
	unused := make([]Reference, 0, len(s.catalog))
	for _, ref := range s.catalog {
		if _, ok := used[ref.Key()]; ok {
			continue
		}
		unused = append(unused, ref)
	}
	return unused, nil
}
