package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"PersonaChain/internal/chat"
	xerrors "PersonaChain/internal/errors"
)

// MessageStore 将会话消息写入 MySQL。
// 同一会话内的 Seq 在一个行锁事务中计算，保证严格递增。
type MessageStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ chat.Store = (*MessageStore)(nil)

// NewMessageStore 建立连接池并执行嵌入的迁移脚本。
func NewMessageStore(ctx context.Context, cfg Config) (*MessageStore, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "初始化消息存储失败")
	}

	store := &MessageStore{db: db, now: time.Now}
	if err := store.runMigrations(ctx); err != nil {
		db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "执行消息存储迁移失败")
	}
	return store, nil
}

// nextSeq 在已有最大序号与当前毫秒时间戳之间取较大者，
// 时间回拨或同毫秒并发时退化为 last+1。
func nextSeq(last, nowMillis int64) int64 {
	if nowMillis > last {
		return nowMillis
	}
	return last + 1
}

// Append 追加一条消息并返回最终落库的 Seq。
func (s *MessageStore) Append(ctx context.Context, msg chat.Message) (int64, error) {
	if err := msg.Validate(); err != nil {
		return 0, err
	}

	metadata, err := encodeMetadata(msg.Metadata)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, xerrors.Wrap(xerrors.CodeStorageFailure, err, "开启写入事务失败")
	}

	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM messages WHERE session_id = ? FOR UPDATE`,
		msg.SessionID,
	).Scan(&last); err != nil {
		tx.Rollback()
		return 0, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询会话序号失败")
	}

	seq := msg.Seq
	if seq <= last.Int64 {
		seq = nextSeq(last.Int64, s.now().UnixMilli())
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, seq, author, body, metadata, expires_at, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.SessionID, seq, msg.Author, msg.Body, metadata, msg.ExpiresAt, s.now().Unix(),
	); err != nil {
		tx.Rollback()
		return 0, xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入消息失败")
	}

	if err := tx.Commit(); err != nil {
		return 0, xerrors.Wrap(xerrors.CodeStorageFailure, err, "提交写入事务失败")
	}
	return seq, nil
}

// List 按 Seq 升序返回会话内未过期的消息。limit>0 时只保留最新的 limit 条。
func (s *MessageStore) List(ctx context.Context, sessionID string, limit int) ([]chat.Message, error) {
	query := `SELECT session_id, seq, author, body, metadata, expires_at
        FROM messages
        WHERE session_id = ? AND (expires_at = 0 OR expires_at > ?)
        ORDER BY seq DESC`
	args := []any{sessionID, s.now().Unix()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询消息失败")
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var msg chat.Message
		var metadata sql.NullString
		if err := rows.Scan(&msg.SessionID, &msg.Seq, &msg.Author, &msg.Body, &metadata, &msg.ExpiresAt); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析消息记录失败")
		}
		if msg.Metadata, err = decodeMetadata(metadata.String); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历消息记录失败")
	}

	// 查询按 Seq 倒序取最新的 limit 条，返回前翻转为升序。
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Close 关闭底层数据库连接。
func (s *MessageStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func encodeMetadata(metadata map[string]string) (string, error) {
	if len(metadata) == 0 {
		return "", nil
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("序列化消息元数据失败: %w", err)
	}
	return string(encoded), nil
}

func decodeMetadata(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, fmt.Errorf("解析消息元数据失败: %w", err)
	}
	return metadata, nil
}
