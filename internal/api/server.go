package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"PersonaChain/internal/chat"
	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/observability/metrics"
	"PersonaChain/pkg/logger"
)

// MessageQueue 是服务端需要的队列投递能力。
type MessageQueue interface {
	Publish(ctx context.Context, inbound chat.Inbound) error
}

// MessageLog 是服务端需要的会话日志查询能力。
type MessageLog interface {
	List(ctx context.Context, sessionID string, limit int) ([]chat.Message, error)
}

// Server 负责暴露 REST 接口。入站消息只入队不处理，
// 处理由队列消费端的编排器完成。
type Server struct {
	addr     string
	producer MessageQueue
	store    MessageLog
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, producer MessageQueue, store MessageLog) *Server {
	return &Server{addr: addr, producer: producer, store: store}
}

// Handler 返回完整路由，便于测试直接驱动。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/messages", instrument("messages", http.HandlerFunc(s.handleCreateMessage)))
	mux.Handle("GET /api/v1/sessions/{id}/messages", instrument("session_messages", http.HandlerFunc(s.handleSessionMessages)))
	mux.Handle("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Named("api").Info("HTTP 服务已启动", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}

type createMessageRequest struct {
	SessionID string `json:"session_id"`
	Sender    string `json:"sender"`
	Owner     string `json:"owner"`
	Body      string `json:"body"`
}

type createMessageResponse struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	if s.producer == nil {
		http.Error(w, "队列未初始化", http.StatusServiceUnavailable)
		return
	}

	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "请求体解析失败", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		http.Error(w, "session_id 不能为空", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		http.Error(w, "body 不能为空", http.StatusBadRequest)
		return
	}

	inbound := chat.Inbound{
		SessionID: req.SessionID,
		Sender:    req.Sender,
		Owner:     req.Owner,
		Body:      req.Body,
	}
	if err := s.producer.Publish(r.Context(), inbound); err != nil {
		logger.Named("api").Error("入站消息入队失败",
			"session_id", req.SessionID,
			"error", err,
		)
		http.Error(w, "消息入队失败", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, createMessageResponse{
		RequestID: uuid.NewString(),
		SessionID: req.SessionID,
		Status:    "queued",
	})
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "消息日志未初始化", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.PathValue("id")
	if strings.TrimSpace(sessionID) == "" {
		http.Error(w, "会话 ID 不能为空", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit 必须为正整数", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	messages, err := s.store.List(r.Context(), sessionID, limit)
	if err != nil {
		http.Error(w, statusMessage(err), statusCode(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   messages,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusCode 将内部错误码映射为 HTTP 状态码。
func statusCode(err error) int {
	typed, ok := xerrors.From(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch typed.Code() {
	case xerrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case xerrors.CodeNotFound:
		return http.StatusNotFound
	case xerrors.CodeConflict:
		return http.StatusConflict
	case xerrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func statusMessage(err error) string {
	if typed, ok := xerrors.From(err); ok {
		return typed.Message()
	}
	return "内部错误"
}

// instrument 记录每个路由的请求量、错误量与耗时。
func instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.ObserveHTTPRequest(name, r.Method, recorder.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
