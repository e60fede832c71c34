package vincent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	xerrors "github.com/SaucerHedge/agents/internal/errors"
)

const scopeKeyPrefix = "saucerhedge:scope:"

// RedisConfig 描述授权存储的 Redis 连接参数。
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RedisStore 把委托授权存入 Redis，TTL 跟随授权有效期，进程重启后
// 授权仍然可用。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 授权存储并验证连通性。
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, xerrors.New(xerrors.CodeConfiguration, "Redis address 不能为空")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "连接 Redis 失败")
	}
	return &RedisStore{client: client}, nil
}

// Put 实现 ScopeStore，过期时间写入 TTL。
func (r *RedisStore) Put(ctx context.Context, scope Scope) error {
	data, err := json.Marshal(scope)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "序列化授权失败")
	}
	var ttl time.Duration
	if !scope.ExpiresAt.IsZero() {
		ttl = time.Until(scope.ExpiresAt)
		if ttl <= 0 {
			return xerrors.New(xerrors.CodeInvalidArgument, "授权已过期")
		}
	}
	if err := r.client.Set(ctx, scopeKeyPrefix+scope.UserAddress, data, ttl).Err(); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入授权失败")
	}
	return nil
}

// Get 实现 ScopeStore。
func (r *RedisStore) Get(ctx context.Context, userAddress string) (Scope, bool, error) {
	data, err := r.client.Get(ctx, scopeKeyPrefix+userAddress).Bytes()
	if err == redis.Nil {
		return Scope{}, false, nil
	}
	if err != nil {
		return Scope{}, false, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取授权失败")
	}
	var scope Scope
	if err := json.Unmarshal(data, &scope); err != nil {
		return Scope{}, false, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析授权失败")
	}
	return scope, true, nil
}

// Delete 实现 ScopeStore。
func (r *RedisStore) Delete(ctx context.Context, userAddress string) error {
	if err := r.client.Del(ctx, scopeKeyPrefix+userAddress).Err(); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "删除授权失败")
	}
	return nil
}

// Close 关闭 Redis 连接。
func (r *RedisStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

var _ ScopeStore = (*RedisStore)(nil)
