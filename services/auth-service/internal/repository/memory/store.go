// Package memory holds in-process repositories for development and tests.
// Data is lost on restart.
package memory

import (
	"context"
	"strings"
	"sync"

	"BizBooksPlatform/services/auth-service/internal/domain"
)

// Store is the shared state behind every memory repository. One mutex guards
// all maps so that a compare-and-delete on a code is atomic.
type Store struct {
	mu         sync.Mutex
	businesses map[string]domain.Business
	users      map[string]domain.User
	codes      map[string]domain.VerificationCode
}

func NewStore() *Store {
	return &Store{
		businesses: make(map[string]domain.Business),
		users:      make(map[string]domain.User),
		codes:      make(map[string]domain.VerificationCode),
	}
}

type journalKey struct{}

// journal collects undo steps for the running unit of work.
type journal struct {
	mu   sync.Mutex
	undo []func()
}

// record registers undo for the write just made. The caller holds s.mu.
func (s *Store) record(ctx context.Context, undo func()) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok {
		return
	}
	j.mu.Lock()
	j.undo = append(j.undo, undo)
	j.mu.Unlock()
}

// Transactor gives the memory repositories all-or-nothing writes. It does not
// isolate concurrent units of work from each other.
type Transactor struct {
	store *Store
}

func NewTransactor(store *Store) *Transactor {
	return &Transactor{store: store}
}

// WithinTransaction reverts every write fn made when fn returns an error.
// Nested calls join the outer unit of work.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}

	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		t.store.mu.Lock()
		j.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		j.mu.Unlock()
		t.store.mu.Unlock()
		return err
	}
	return nil
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
