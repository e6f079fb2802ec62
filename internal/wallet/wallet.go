package wallet

import (
	"context"
	"fmt"
	"strings"

	xerrors "PersonaChain/internal/errors"
)

// Record 描述归属某个 owner 与人格组合的托管钱包。
// 同一组合下最多存在一条记录。
type Record struct {
	WalletID   string `json:"wallet_id"`
	Owner      string `json:"owner"`
	PersonaID  string `json:"persona_id"`
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
	BaseName   string `json:"base_name,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

// Key 返回记录的存储键，形如 owner#persona。
func (r Record) Key() string {
	return StoreKey(r.Owner, r.PersonaID)
}

// StoreKey 组合 owner 与人格形成存储键。
func StoreKey(owner, personaID string) string {
	return fmt.Sprintf("%s#%s", strings.TrimSpace(owner), strings.TrimSpace(personaID))
}

// Validate 校验记录的必填字段。
func (r Record) Validate() error {
	if strings.TrimSpace(r.Owner) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "钱包 owner 不能为空")
	}
	if strings.TrimSpace(r.PersonaID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "钱包人格不能为空")
	}
	if strings.TrimSpace(r.Address) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "钱包地址不能为空")
	}
	return nil
}

// Store 定义钱包记录的持久化接口。
type Store interface {
	// PutIfAbsent 仅在键不存在时写入。返回最终记录以及本次是否发生写入。
	PutIfAbsent(ctx context.Context, record Record) (Record, bool, error)
	// Get 按 owner 与人格读取记录，不存在时返回 CodeNotFound。
	Get(ctx context.Context, owner, personaID string) (*Record, error)
	// Update 覆盖已存在的记录，不存在时返回 CodeNotFound。
	Update(ctx context.Context, record Record) error
	// Close 释放底层资源。
	Close() error
}
