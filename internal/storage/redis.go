package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xaenox/antispam-bot/internal/models"
)

// CredentialPrefix is the Redis key prefix for credential hashes:
//
//	Key:    cred:<operator_id>
//	Fields: secret, verified, created_at, verified_at
const CredentialPrefix = "cred:"

// markVerifiedScript sets the verified flag only if the secret is unchanged.
var markVerifiedScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
if redis.call("HGET", KEYS[1], "secret") ~= ARGV[1] then
	return 0
end
redis.call("HSET", KEYS[1], "verified", "1", "verified_at", ARGV[2])
return 1
`)

// RedisStorage keeps credentials in Redis hashes
type RedisStorage struct {
	client *redis.Client
}

var _ CredentialStore = (*RedisStorage)(nil)

func NewRedisStorage(redisURL string) (*RedisStorage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &RedisStorage{client: client}, nil
}

// NewRedisStorageWithClient wraps an existing client.
func NewRedisStorageWithClient(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

func credentialKey(operatorID int64) string {
	return CredentialPrefix + strconv.FormatInt(operatorID, 10)
}

func (s *RedisStorage) Get(ctx context.Context, operatorID int64) (*models.Credential, error) {
	fields, err := s.client.HGetAll(ctx, credentialKey(operatorID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get credential: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	cred := &models.Credential{
		OperatorID: operatorID,
		Secret:     fields["secret"],
		Verified:   fields["verified"] == "1",
	}
	if v, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		cred.CreatedAt = time.Unix(v, 0)
	}
	if v, err := strconv.ParseInt(fields["verified_at"], 10, 64); err == nil && v != 0 {
		cred.VerifiedAt = time.Unix(v, 0)
	}

	return cred, nil
}

func (s *RedisStorage) Put(ctx context.Context, cred *models.Credential) error {
	key := credentialKey(cred.OperatorID)
	verified := "0"
	if cred.Verified {
		verified = "1"
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"secret", cred.Secret,
			"verified", verified,
			"created_at", cred.CreatedAt.Unix(),
			"verified_at", unixOrZero(cred.VerifiedAt),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: put credential: %w", err)
	}
	return nil
}

func (s *RedisStorage) MarkVerified(ctx context.Context, operatorID int64, secret string, at time.Time) error {
	res, err := markVerifiedScript.Run(ctx, s.client, []string{credentialKey(operatorID)}, secret, at.Unix()).Int()
	if err != nil {
		return fmt.Errorf("redis: mark verified: %w", err)
	}

	switch res {
	case -1:
		return ErrNotFound
	case 0:
		return ErrSecretChanged
	default:
		return nil
	}
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
