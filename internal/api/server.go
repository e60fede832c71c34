package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SaucerHedge/agents/internal/agent"
	"github.com/SaucerHedge/agents/internal/llm"
	"github.com/SaucerHedge/agents/internal/observability/metrics"
	"github.com/SaucerHedge/agents/internal/vincent"
)

const defaultUserID = "default"

// Server 负责暴露 REST 接口，供前端驱动对话代理。
type Server struct {
	addr    string
	agent   *agent.Agent
	vincent *vincent.Service
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, ag *agent.Agent, vc *vincent.Service) *Server {
	return &Server{addr: addr, agent: ag, vincent: vc}
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/chat", s.handleChat)
	mux.HandleFunc("/api/v1/chat/history", s.handleHistory)
	mux.HandleFunc("/api/v1/auth/url", s.handleAuthURL)
	mux.HandleFunc("/api/v1/auth/validate", s.handleAuthValidate)
	mux.HandleFunc("/api/v1/auth/scope", s.handleAuthScope)
	mux.HandleFunc("/api/v1/logs", s.handleLogs)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())

	// 配置 HTTP 服务器。
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, withMetrics(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 启动服务器并监听关闭信号。
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

type chatRequest struct {
	UserID  string     `json:"user_id"`
	Message string     `json:"message"`
	History []llm.Turn `json:"history,omitempty"`
}

// handleChat 处理一轮对话：先取历史，再交给代理，最后把这一轮写回
// 历史。调用方可以自带 history 覆盖服务端记忆。
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	if s.agent == nil {
		http.Error(w, "Agent 未初始化", http.StatusServiceUnavailable)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "请求体解析失败")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = defaultUserID
	}

	history := req.History
	if history == nil {
		history = s.agent.History(userID)
	}

	resp := s.agent.ProcessTurn(r.Context(), req.Message, userID, history)
	s.agent.Remember(userID, req.Message, resp.Content)

	writeJSON(w, http.StatusOK, resp)
}

// handleHistory 查询或清空用户的对话历史。
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = defaultUserID
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"user_id": userID,
			"history": s.agent.History(userID),
		})
	case http.MethodDelete:
		s.agent.ClearHistory(userID)
		writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "cleared": true})
	default:
		http.Error(w, "仅支持 GET/DELETE", http.StatusMethodNotAllowed)
	}
}

type authURLRequest struct {
	UserAddress string `json:"user_address"`
}

func (s *Server) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	var req authURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "请求体解析失败")
		return
	}
	if req.UserAddress == "" {
		writeError(w, http.StatusBadRequest, "User address required")
		return
	}
	authURL, err := s.vincent.AuthURL(req.UserAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"auth_url": authURL})
}

type authValidateRequest struct {
	JWT string `json:"jwt"`
}

func (s *Server) handleAuthValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	var req authValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "请求体解析失败")
		return
	}
	if req.JWT == "" {
		writeError(w, http.StatusBadRequest, "JWT required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": s.vincent.ValidateDelegation(req.JWT)})
}

type authScopeRequest struct {
	UserAddress    string  `json:"user_address"`
	MaxTransaction float64 `json:"max_transaction"`
	ExpirationDays int     `json:"expiration_days"`
}

func (s *Server) handleAuthScope(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	var req authScopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "请求体解析失败")
		return
	}
	if req.ExpirationDays <= 0 {
		req.ExpirationDays = 7
	}
	scope, err := s.vincent.CreateScope(r.Context(), req.UserAddress, req.MaxTransaction,
		time.Duration(req.ExpirationDays)*24*time.Hour)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scope)
}

// handleLogs 查询审计日志，支持按用户过滤与条数限制。
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	entries := s.agent.QueryAuditLog(r.URL.Query().Get("user_id"), limit)
	writeJSON(w, http.StatusOK, map[string]any{"logs": entries, "count": len(entries)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.agent.SnapshotStats())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "saucerhedge-agent",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}

// statusRecorder 捕获响应状态码供指标使用。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withMetrics 记录每个请求的计数与时延。
func withMetrics(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler.ServeHTTP(recorder, r)
		metrics.ObserveHTTPRequest(r.URL.Path, r.Method, recorder.status, time.Since(start))
	})
}
