package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"BizBooksPlatform/services/auth-service/internal/domain"
	"BizBooksPlatform/services/auth-service/internal/repository"
)

const keyPrefix = "verification_code"

// consumeScript deletes the key only when the stored hash matches and the code
// was updated after ARGV[2] (unix ms). It returns the stored value or nil.
var consumeScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
	return false
end
local code = cjson.decode(raw)
if code.code_hash ~= ARGV[1] then
	return false
end
if tonumber(code.updated_at_ms) <= tonumber(ARGV[2]) then
	return false
end
redis.call('DEL', KEYS[1])
return raw
`)

type storedCode struct {
	domain.VerificationCode
	UpdatedAtMs int64 `json:"updated_at_ms"`
}

// CodeRepository keeps one key per (email, purpose). Keys carry the code TTL
// so redis drops expired codes on its own.
type CodeRepository struct {
	client *redis.Client
}

func NewCodeRepository(client *redis.Client) *CodeRepository {
	return &CodeRepository{client: client}
}

func codeKey(email string, purpose domain.CodePurpose) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, purpose, strings.ToLower(email))
}

// Save overwrites the key, which is what supersedes an older code.
func (r *CodeRepository) Save(ctx context.Context, code *domain.VerificationCode, ttl time.Duration) error {
	data, err := json.Marshal(storedCode{
		VerificationCode: *code,
		UpdatedAtMs:      code.UpdatedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal verification code: %w", err)
	}

	if err := r.client.Set(ctx, codeKey(code.Email, code.Purpose), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set verification code in Redis: %w", err)
	}

	return nil
}

func (r *CodeRepository) Find(ctx context.Context, email string, purpose domain.CodePurpose) (*domain.VerificationCode, error) {
	data, err := r.client.Get(ctx, codeKey(email, purpose)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}

	return decodeCode(data)
}

func (r *CodeRepository) Consume(ctx context.Context, email string, purpose domain.CodePurpose, codeHash string, notBefore time.Time) (*domain.VerificationCode, error) {
	raw, err := consumeScript.Run(ctx, r.client,
		[]string{codeKey(email, purpose)},
		codeHash, notBefore.UnixMilli(),
	).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrCodeInvalid
		}
		return nil, fmt.Errorf("failed to consume verification code: %w", err)
	}

	return decodeCode([]byte(raw))
}

// DeleteExpired is a no-op: keys expire through their TTL.
func (r *CodeRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func decodeCode(data []byte) (*domain.VerificationCode, error) {
	var stored storedCode
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification code: %w", err)
	}
	return &stored.VerificationCode, nil
}
