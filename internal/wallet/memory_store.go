package wallet

import (
	"context"
	"sync"

	xerrors "PersonaChain/internal/errors"
)

// MemoryStore 提供基于内存的钱包存储，用于测试与本地运行。
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore 创建内存钱包存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// PutIfAbsent 仅在键不存在时写入。
func (s *MemoryStore) PutIfAbsent(ctx context.Context, record Record) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}
	if err := record.Validate(); err != nil {
		return Record{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.Key()]; ok {
		return existing, false, nil
	}
	s.records[record.Key()] = record
	return record, true, nil
}

// Get 按键读取记录。
func (s *MemoryStore) Get(ctx context.Context, owner, personaID string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[StoreKey(owner, personaID)]
	if !ok {
		return nil, xerrors.New(xerrors.CodeNotFound, "钱包不存在")
	}
	clone := record
	return &clone, nil
}

// Update 覆盖已存在的记录。
func (s *MemoryStore) Update(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.Key()]; !ok {
		return xerrors.New(xerrors.CodeNotFound, "钱包不存在")
	}
	s.records[record.Key()] = record
	return nil
}

// Close 实现 Store 接口。
func (s *MemoryStore) Close() error {
	return nil
}
