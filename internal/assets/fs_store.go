package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	xerrors "PersonaChain/internal/errors"
)

// FSStore 将媒体内容写入本地目录，URL 由配置的前缀拼出。
// 内容类型记录在同名的 .meta 文件里。
type FSStore struct {
	dir     string
	baseURL string
}

// NewFSStore 创建文件系统媒体存储。
func NewFSStore(dir, baseURL string) (*FSStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "未配置媒体目录")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "创建媒体目录失败")
	}
	return &FSStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

var _ Store = (*FSStore)(nil)

type fsMeta struct {
	ContentType string `json:"content_type"`
}

// Put 保存内容并返回 URL。
func (s *FSStore) Put(_ context.Context, name, contentType string, data []byte) (string, error) {
	if err := validate(name, data); err != nil {
		return "", err
	}
	// 只取基名，防止调用方携带路径分隔符逃出存储目录。
	name = filepath.Base(name)

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入媒体文件失败")
	}
	meta, err := json.Marshal(fsMeta{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("序列化媒体元数据失败: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name+".meta"), meta, 0o644); err != nil {
		return "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入媒体元数据失败")
	}
	return s.urlFor(name), nil
}

// Get 按名称取回内容。
func (s *FSStore) Get(_ context.Context, name string) (*Asset, error) {
	name = filepath.Base(name)
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.New(xerrors.CodeNotFound, fmt.Sprintf("媒体 %s 不存在", name))
		}
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取媒体文件失败")
	}

	var meta fsMeta
	if raw, err := os.ReadFile(filepath.Join(s.dir, name+".meta")); err == nil {
		_ = json.Unmarshal(raw, &meta)
	}
	return &Asset{
		Name:        name,
		ContentType: meta.ContentType,
		Data:        data,
		URL:         s.urlFor(name),
	}, nil
}

// Close 实现 Store 接口。
func (s *FSStore) Close() error { return nil }

func (s *FSStore) urlFor(name string) string {
	if s.baseURL == "" {
		return "file://" + filepath.Join(s.dir, name)
	}
	return s.baseURL + "/" + name
}
