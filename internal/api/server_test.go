package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SaucerHedge/agents/internal/ability"
	"github.com/SaucerHedge/agents/internal/agent"
	"github.com/SaucerHedge/agents/internal/audit"
	"github.com/SaucerHedge/agents/internal/conversation"
	"github.com/SaucerHedge/agents/internal/executor"
	"github.com/SaucerHedge/agents/internal/formatter"
	"github.com/SaucerHedge/agents/internal/hedera"
	"github.com/SaucerHedge/agents/internal/llm"
	"github.com/SaucerHedge/agents/internal/vincent"
)

type stubLLM struct {
	reply *llm.Reply
}

func (s *stubLLM) Complete(_ context.Context, _ llm.Request) (*llm.Reply, error) {
	return s.reply, nil
}

func newTestServer(t *testing.T, reply *llm.Reply) *Server {
	t.Helper()
	source, err := ability.NewStaticSource([]ability.Descriptor{
		{Identifier: "@saucerhedgevault/open-hedged-position-ability", Description: "opens"},
	})
	if err != nil {
		t.Fatalf("build source: %v", err)
	}
	ag := agent.New(
		&stubLLM{reply: reply},
		source,
		executor.NewDispatcher(hedera.NewSimulatedInvoker()),
		formatter.NewRegistry("testnet"),
		conversation.NewStore(0),
		audit.NewLog(0),
	)
	vc := vincent.NewService(983, "http://localhost:3000/auth/callback", vincent.NewMemoryStore(), source)
	return NewServer(":0", ag, vc)
}

func TestHandleChatSuccess(t *testing.T) {
	srv := newTestServer(t, &llm.Reply{Blocks: []llm.ContentBlock{
		{Kind: llm.BlockText, Text: "sure thing"},
	}})

	body := strings.NewReader(`{"user_id":"u1","message":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
	rec := httptest.NewRecorder()
	srv.handleChat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	var resp agent.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Content != "sure thing" {
		t.Fatalf("unexpected content: %s", resp.Content)
	}

	// 一轮结束后用户与助手消息都要写入历史。
	histReq := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history?user_id=u1", nil)
	histRec := httptest.NewRecorder()
	srv.handleHistory(histRec, histReq)

	var hist struct {
		History []llm.Turn `json:"history"`
	}
	if err := json.Unmarshal(histRec.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.History) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(hist.History))
	}
}

func TestHandleChatRejectsEmptyMessage(t *testing.T) {
	srv := newTestServer(t, &llm.Reply{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"   "}`))
	rec := httptest.NewRecorder()
	srv.handleChat(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Message is required") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandleHistoryDelete(t *testing.T) {
	srv := newTestServer(t, &llm.Reply{Blocks: []llm.ContentBlock{
		{Kind: llm.BlockText, Text: "hi"},
	}})

	chatReq := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"user_id":"u1","message":"hello"}`))
	srv.handleChat(httptest.NewRecorder(), chatReq)

	delReq := httptest.NewRequest(http.MethodDelete, "/api/v1/chat/history?user_id=u1", nil)
	delRec := httptest.NewRecorder()
	srv.handleHistory(delRec, delReq)
	if delRec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", delRec.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history?user_id=u1", nil)
	getRec := httptest.NewRecorder()
	srv.handleHistory(getRec, getReq)

	var hist struct {
		History []llm.Turn `json:"history"`
	}
	if err := json.Unmarshal(getRec.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.History) != 0 {
		t.Fatalf("expected empty history, got %d", len(hist.History))
	}
}

func TestHandleAuthURL(t *testing.T) {
	srv := newTestServer(t, &llm.Reply{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/url",
		strings.NewReader(`{"user_address":"0xuser"}`))
	rec := httptest.NewRecorder()
	srv.handleAuthURL(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "https://vincent.hedera.com/auth?") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	// 缺少地址返回 400。
	badRec := httptest.NewRecorder()
	srv.handleAuthURL(badRec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/url", strings.NewReader(`{}`)))
	if badRec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", badRec.Code)
	}
}

func TestHandleAuthValidate(t *testing.T) {
	srv := newTestServer(t, &llm.Reply{})

	rec := httptest.NewRecorder()
	srv.handleAuthValidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/validate",
		strings.NewReader(`{"jwt":"a.b.c"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var resp struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Valid {
		t.Fatal("expected token to validate")
	}
}

func TestHandleStatsAndLogs(t *testing.T) {
	srv := newTestServer(t, &llm.Reply{Blocks: []llm.ContentBlock{
		{Kind: llm.BlockText, Text: "hi"},
	}})

	srv.handleChat(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"user_id":"u1","message":"hello"}`)))

	statsRec := httptest.NewRecorder()
	srv.handleStats(statsRec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	var stats agent.Stats
	if err := json.Unmarshal(statsRec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalTurns != 1 || stats.ActiveConversations != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	logsRec := httptest.NewRecorder()
	srv.handleLogs(logsRec, httptest.NewRequest(http.MethodGet, "/api/v1/logs?user_id=u1", nil))
	var logs struct {
		Logs  []audit.Entry `json:"logs"`
		Count int           `json:"count"`
	}
	if err := json.Unmarshal(logsRec.Body.Bytes(), &logs); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if logs.Count != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Count)
	}
	if logs.Logs[0].UserMessage != "hello" {
		t.Fatalf("unexpected log entry: %+v", logs.Logs[0])
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &llm.Reply{})

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
