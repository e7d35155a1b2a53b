package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	recordauth "github.com/andreibyf/aishacrm-2-sub006"
)

// RedisSessionStore persists session overrides in a Redis hash per
// session (key: sessctx:{sessionID}), expiring with the session lifetime.
type RedisSessionStore struct {
	client *redis.Client
	keyFmt string
	ttl    time.Duration
}

// NewRedisSessionStore creates the store. ttl should match the session
// lifetime of the surrounding application; zero keeps keys forever.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, keyFmt: "sessctx:%s", ttl: ttl}
}

func (r *RedisSessionStore) key(sessionID string) string {
	return fmt.Sprintf(r.keyFmt, sessionID)
}

func (r *RedisSessionStore) Load(ctx context.Context, sessionID string) (recordauth.SessionContext, error) {
	fields, err := r.client.HGetAll(ctx, r.key(sessionID)).Result()
	if err != nil {
		return recordauth.SessionContext{}, err
	}
	return recordauth.SessionContext{
		TenantOverride:   fields["tenant_override"],
		EmployeeOverride: fields["employee_override"],
	}, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, sessionID string, sc recordauth.SessionContext) error {
	key := r.key(sessionID)
	if err := r.client.HSet(ctx, key, map[string]any{
		"tenant_override":   sc.TenantOverride,
		"employee_override": sc.EmployeeOverride,
	}).Err(); err != nil {
		return err
	}
	if r.ttl > 0 {
		return r.client.Expire(ctx, key, r.ttl).Err()
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.key(sessionID)).Err()
}
