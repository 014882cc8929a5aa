package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"BizBooksPlatform/services/auth-service/internal/domain"
	"BizBooksPlatform/services/auth-service/internal/pkg/codegen"
	"BizBooksPlatform/services/auth-service/internal/pkg/hash"
	"BizBooksPlatform/services/auth-service/internal/repository"
)

// IssuedCode is the plaintext code handed to the notifier. It is never stored.
type IssuedCode struct {
	Code      string
	ExpiresAt time.Time
}

// CodeVault issues and redeems one-time verification codes. Only the HMAC of
// a code reaches storage.
type CodeVault struct {
	codes    repository.CodeRepository
	hasher   *hash.CodeHasher
	generate codegen.Generator
	length   int
	ttl      time.Duration
	now      func() time.Time
}

type CodeVaultOption func(*CodeVault)

func WithVaultClock(now func() time.Time) CodeVaultOption {
	return func(v *CodeVault) {
		v.now = now
	}
}

func WithGenerator(generate codegen.Generator) CodeVaultOption {
	return func(v *CodeVault) {
		v.generate = generate
	}
}

func NewCodeVault(codes repository.CodeRepository, hasher *hash.CodeHasher, length int, ttl time.Duration, opts ...CodeVaultOption) *CodeVault {
	v := &CodeVault{
		codes:    codes,
		hasher:   hasher,
		generate: codegen.Numeric,
		length:   length,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *CodeVault) Length() int {
	return v.length
}

func (v *CodeVault) TTL() time.Duration {
	return v.ttl
}

// Issue creates a code for (email, purpose), superseding any earlier one.
func (v *CodeVault) Issue(ctx context.Context, email string, purpose domain.CodePurpose, payload json.RawMessage) (*IssuedCode, error) {
	if !purpose.Valid() {
		return nil, fmt.Errorf("unknown code purpose %q", purpose)
	}

	code, err := v.generate(v.length)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	now := v.now().UTC()
	record := &domain.VerificationCode{
		ID:        uuid.NewString(),
		Email:     email,
		Purpose:   purpose,
		CodeHash:  v.hasher.Hash(code),
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := v.codes.Save(ctx, record, v.ttl); err != nil {
		return nil, err
	}

	return &IssuedCode{Code: code, ExpiresAt: record.ExpiresAt(v.ttl)}, nil
}

// Check validates code without consuming it. Any failure is
// repository.ErrCodeInvalid unless storage itself failed.
func (v *CodeVault) Check(ctx context.Context, email string, purpose domain.CodePurpose, code string) error {
	record, err := v.codes.Find(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrCodeInvalid
		}
		return err
	}

	if record.Expired(v.now(), v.ttl) || !v.hasher.Verify(code, record.CodeHash) {
		return repository.ErrCodeInvalid
	}
	return nil
}

// Consume redeems code in one atomic storage step and returns the record with
// its payload. Of concurrent callers presenting the same code, one succeeds.
func (v *CodeVault) Consume(ctx context.Context, email string, purpose domain.CodePurpose, code string) (*domain.VerificationCode, error) {
	notBefore := v.now().Add(-v.ttl)
	return v.codes.Consume(ctx, email, purpose, v.hasher.Hash(code), notBefore)
}

// Purge removes codes that are past their TTL.
func (v *CodeVault) Purge(ctx context.Context) (int64, error) {
	return v.codes.DeleteExpired(ctx, v.now().Add(-v.ttl))
}
