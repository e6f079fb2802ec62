package wallet

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	xerrors "PersonaChain/internal/errors"
)

const redisKeyPrefix = "personachain:wallet:"

// RedisStore 使用 Redis 持久化钱包记录，通过 SETNX 保证
// 并发创建时同一键只会写入一次。
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore 创建 Redis 钱包存储。
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(owner, personaID string) string {
	return redisKeyPrefix + StoreKey(owner, personaID)
}

// PutIfAbsent 通过 SETNX 写入；若键已存在则读回现有记录。
func (s *RedisStore) PutIfAbsent(ctx context.Context, record Record) (Record, bool, error) {
	if err := record.Validate(); err != nil {
		return Record{}, false, err
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return Record{}, false, fmt.Errorf("序列化钱包记录失败: %w", err)
	}

	created, err := s.client.SetNX(ctx, redisKey(record.Owner, record.PersonaID), payload, 0).Result()
	if err != nil {
		return Record{}, false, xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入钱包记录失败")
	}
	if created {
		return record, true, nil
	}

	existing, err := s.Get(ctx, record.Owner, record.PersonaID)
	if err != nil {
		return Record{}, false, err
	}
	return *existing, false, nil
}

// Get 读取钱包记录。
func (s *RedisStore) Get(ctx context.Context, owner, personaID string) (*Record, error) {
	raw, err := s.client.Get(ctx, redisKey(owner, personaID)).Bytes()
	if stdErrors.Is(err, redis.Nil) {
		return nil, xerrors.New(xerrors.CodeNotFound, "钱包不存在")
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取钱包记录失败")
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析钱包记录失败")
	}
	return &record, nil
}

// Update 覆盖已存在的记录。
func (s *RedisStore) Update(ctx context.Context, record Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if _, err := s.Get(ctx, record.Owner, record.PersonaID); err != nil {
		return err
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化钱包记录失败: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(record.Owner, record.PersonaID), payload, 0).Err(); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "更新钱包记录失败")
	}
	return nil
}

// Close 关闭 Redis 连接。
func (s *RedisStore) Close() error {
	return s.client.Close()
}
