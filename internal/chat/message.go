package chat

import (
	"strings"
	"time"

	xerrors "PersonaChain/internal/errors"
)

// 会话消息的作者分为外部用户与人格两类，二者都以名字标识。
// ViewerAuthor 表示来自前端用户的发言。
const ViewerAuthor = "viewer"

// EmptySentinel 是模型用于表示"本轮无内容"的固定串。
// 携带该串的回复仍会入库，但不会推送给任何通知通道。
const EmptySentinel = "No response content"

// Message 是会话日志中的一条记录。Seq 为毫秒时间戳，
// 同一会话内由存储层保证严格递增。
type Message struct {
	SessionID string            `json:"session_id"`
	Seq       int64             `json:"seq"`
	Author    string            `json:"author"`
	Body      string            `json:"body"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	ExpiresAt int64             `json:"expires_at,omitempty"`
}

// Validate 校验消息的必填字段。
func (m *Message) Validate() error {
	if strings.TrimSpace(m.SessionID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "会话 ID 不能为空")
	}
	if strings.TrimSpace(m.Author) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "消息作者不能为空")
	}
	return nil
}

// Expired 判断消息是否已超过保留期。
func (m *Message) Expired(now time.Time) bool {
	return m.ExpiresAt > 0 && m.ExpiresAt <= now.Unix()
}

// Clone 返回消息的深拷贝。
func (m *Message) Clone() Message {
	clone := *m
	if m.Metadata != nil {
		clone.Metadata = make(map[string]string, len(m.Metadata))
		for k, v := range m.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}
