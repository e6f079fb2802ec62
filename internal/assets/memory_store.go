package assets

import (
	"context"
	"fmt"
	"sync"

	xerrors "PersonaChain/internal/errors"
)

// MemoryStore 将媒体内容保存在进程内，适合测试与单机部署。
type MemoryStore struct {
	mu      sync.RWMutex
	items   map[string]Asset
	baseURL string
}

// NewMemoryStore 创建内存媒体存储。
func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://assets"
	}
	return &MemoryStore{
		items:   make(map[string]Asset),
		baseURL: baseURL,
	}
}

var _ Store = (*MemoryStore)(nil)

// Put 保存内容并返回 URL。
func (s *MemoryStore) Put(_ context.Context, name, contentType string, data []byte) (string, error) {
	if err := validate(name, data); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s", s.baseURL, name)
	copied := make([]byte, len(data))
	copy(copied, data)

	s.mu.Lock()
	s.items[name] = Asset{Name: name, ContentType: contentType, Data: copied, URL: url}
	s.mu.Unlock()
	return url, nil
}

// Get 按名称取回内容。
func (s *MemoryStore) Get(_ context.Context, name string) (*Asset, error) {
	s.mu.RLock()
	asset, ok := s.items[name]
	s.mu.RUnlock()
	if !ok {
		return nil, xerrors.New(xerrors.CodeNotFound, fmt.Sprintf("媒体 %s 不存在", name))
	}
	copied := asset
	copied.Data = make([]byte, len(asset.Data))
	copy(copied.Data, asset.Data)
	return &copied, nil
}

// Close 实现 Store 接口。
func (s *MemoryStore) Close() error { return nil }
