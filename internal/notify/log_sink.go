package notify

import (
	"context"
	"log/slog"

	"PersonaChain/pkg/logger"
)

// LogSink 将通知写入结构化日志，作为默认驱动使用。
type LogSink struct{}

var _ Sink = LogSink{}

// CharacterMessage 记录人格消息。
func (LogSink) CharacterMessage(ctx context.Context, sessionID, personaName, text string) error {
	logger.Named("notify").Info("角色消息",
		slog.String("session_id", sessionID),
		slog.String("persona", personaName),
		slog.String("text", text),
	)
	return nil
}

// GodEvent 记录观察事件，同时写入审计日志。
func (LogSink) GodEvent(ctx context.Context, sessionID string, evt Event) error {
	logger.Named("notify").Info("观察事件",
		slog.String("session_id", sessionID),
		slog.String("event", evt.EventName),
		slog.String("persona", evt.PersonaID),
	)
	logger.Audit().Info("god_event",
		slog.String("session_id", sessionID),
		slog.String("event_id", evt.ID),
		slog.String("event", evt.EventName),
		slog.String("created_by", evt.CreatedBy),
		slog.String("persona", evt.PersonaID),
	)
	return nil
}
