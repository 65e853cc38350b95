package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/familychat/auth-backend/internal/core/domain/account"
	"github.com/familychat/auth-backend/internal/core/ports"
)

const accountKeyPrefix = "app:account"

// Hash fields of an account record. Timestamps are unix milliseconds.
const (
	fieldID         = "id"
	fieldEmail      = "email"
	fieldOTPCode    = "otp_code"
	fieldOTPExpiry  = "otp_expiry"
	fieldVerifiedAt = "email_verified_at"
	fieldPhone      = "phone"
	fieldCreatedAt  = "created_at"
	fieldUpdatedAt  = "updated_at"
)

// consumeOTPScript: KEYS[1]=account, ARGV[1]=code, ARGV[2]=now ms.
var consumeOTPScript = redis.NewScript(`
local code = redis.call('HGET', KEYS[1], 'otp_code')
if not code or code ~= ARGV[1] then
	return 0
end
local expiry = tonumber(redis.call('HGET', KEYS[1], 'otp_expiry'))
if not expiry or expiry <= tonumber(ARGV[2]) then
	return 0
end
redis.call('HDEL', KEYS[1], 'otp_code')
redis.call('HSETNX', KEYS[1], 'email_verified_at', ARGV[2])
redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
return 1
`)

// Result codes of setPhoneOnceScript.
const (
	linkNoAccount = -1
	linkImmutable = 0
	linkOK        = 1
	linkTaken     = 2
)

// setPhoneOnceScript: KEYS[1]=account, KEYS[2]=phone index,
// ARGV[1]=email, ARGV[2]=phone, ARGV[3]=now ms.
var setPhoneOnceScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
if redis.call('HEXISTS', KEYS[1], 'phone') == 1 then
	return 0
end
if redis.call('SETNX', KEYS[2], ARGV[1]) == 0 then
	return 2
end
redis.call('HSET', KEYS[1], 'phone', ARGV[2], 'updated_at', ARGV[3])
return 1
`)

// AccountRedisRepository implements ports.AccountRepository on Redis. Each
// account is a hash; a separate key per phone acts as the unique index. The
// conditional writes run as Lua scripts, so a check and its write are one
// atomic step on the server. All keys of one account must live on the same
// node, so this store targets a single Redis instance, not a cluster.
type AccountRedisRepository struct {
	r      redis.Cmdable
	now    func() time.Time
	logger *logrus.Logger
}

func NewAccountRedisRepository(r redis.Cmdable, logger *logrus.Logger) *AccountRedisRepository {
	return &AccountRedisRepository{r: r, now: time.Now, logger: logger}
}

var _ ports.AccountRepository = (*AccountRedisRepository)(nil)

func (repo *AccountRedisRepository) keyByEmail(email string) string {
	return fmt.Sprintf("%s:email:%s", accountKeyPrefix, email)
}

func (repo *AccountRedisRepository) keyByPhone(phone string) string {
	return fmt.Sprintf("%s:phone:%s", accountKeyPrefix, phone)
}

func (repo *AccountRedisRepository) UpsertOTP(ctx context.Context, id uuid.UUID, email, code string, expiresAt time.Time) error {
	key := repo.keyByEmail(email)
	nowMs := repo.now().UnixMilli()

	pipe := repo.r.TxPipeline()
	pipe.HSetNX(ctx, key, fieldID, id.String())
	pipe.HSetNX(ctx, key, fieldEmail, email)
	pipe.HSetNX(ctx, key, fieldCreatedAt, nowMs)
	pipe.HSet(ctx, key, fieldOTPCode, code, fieldOTPExpiry, expiresAt.UnixMilli(), fieldUpdatedAt, nowMs)
	if _, err := pipe.Exec(ctx); err != nil {
		if repo.logger != nil {
			repo.logger.WithFields(logrus.Fields{"email": email}).WithError(err).Error("redis: failed to upsert otp")
		}
		return fmt.Errorf("failed to upsert otp in redis: %w", err)
	}
	return nil
}

func (repo *AccountRedisRepository) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (bool, error) {
	res, err := consumeOTPScript.Run(ctx, repo.r, []string{repo.keyByEmail(email)}, code, now.UnixMilli()).Int()
	if err != nil {
		if repo.logger != nil {
			repo.logger.WithFields(logrus.Fields{"email": email}).WithError(err).Error("redis: failed to consume otp")
		}
		return false, fmt.Errorf("failed to consume otp in redis: %w", err)
	}
	return res == 1, nil
}

func (repo *AccountRedisRepository) SetPhoneOnce(ctx context.Context, email, phone string) error {
	keys := []string{repo.keyByEmail(email), repo.keyByPhone(phone)}
	res, err := setPhoneOnceScript.Run(ctx, repo.r, keys, email, phone, repo.now().UnixMilli()).Int()
	if err != nil {
		if repo.logger != nil {
			repo.logger.WithFields(logrus.Fields{"email": email}).WithError(err).Error("redis: failed to set phone")
		}
		return fmt.Errorf("failed to set phone in redis: %w", err)
	}

	switch res {
	case linkOK:
		return nil
	case linkImmutable:
		return account.ErrPhoneImmutable
	case linkTaken:
		return account.ErrPhoneTaken
	case linkNoAccount:
		return account.ErrAccountNotFound
	default:
		return fmt.Errorf("unexpected set phone result %d", res)
	}
}

func (repo *AccountRedisRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	fields, err := repo.r.HGetAll(ctx, repo.keyByEmail(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get account from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, account.ErrAccountNotFound
	}
	a, err := decodeAccount(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode account %s: %w", email, err)
	}
	return a, nil
}

func decodeAccount(fields map[string]string) (*account.Account, error) {
	id, err := uuid.Parse(fields[fieldID])
	if err != nil {
		return nil, fmt.Errorf("bad id: %w", err)
	}
	a := &account.Account{ID: id, Email: fields[fieldEmail]}

	if v, ok := fields[fieldOTPCode]; ok {
		a.OTPCode = &v
	}
	if v, ok := fields[fieldPhone]; ok {
		a.Phone = &v
	}

	var errs []error
	a.OTPExpiry, err = optionalMillis(fields, fieldOTPExpiry)
	errs = append(errs, err)
	a.EmailVerifiedAt, err = optionalMillis(fields, fieldVerifiedAt)
	errs = append(errs, err)
	if t, err := optionalMillis(fields, fieldCreatedAt); err != nil {
		errs = append(errs, err)
	} else if t != nil {
		a.CreatedAt = *t
	}
	if t, err := optionalMillis(fields, fieldUpdatedAt); err != nil {
		errs = append(errs, err)
	} else if t != nil {
		a.UpdatedAt = *t
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return a, nil
}

func optionalMillis(fields map[string]string, name string) (*time.Time, error) {
	v, ok := fields[name]
	if !ok || v == "" {
		return nil, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", name, err)
	}
	t := time.UnixMilli(ms).UTC()
	return &t, nil
}
