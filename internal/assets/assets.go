// Package assets 保存生成的媒体文件并给出可访问的 URL。
package assets

import (
	"context"
	"strings"

	xerrors "PersonaChain/internal/errors"
)

// Asset 是一份已保存的媒体内容。
type Asset struct {
	Name        string
	ContentType string
	Data        []byte
	URL         string
}

// Store 抽象媒体内容的存取。
type Store interface {
	// Put 保存内容并返回可访问的 URL。
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	// Get 按名称取回内容。
	Get(ctx context.Context, name string) (*Asset, error)
	Close() error
}

func validate(name string, data []byte) error {
	if strings.TrimSpace(name) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "媒体名称不能为空")
	}
	if len(data) == 0 {
		return xerrors.New(xerrors.CodeInvalidArgument, "媒体内容不能为空")
	}
	return nil
}
