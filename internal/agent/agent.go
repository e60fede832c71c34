package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SaucerHedge/agents/internal/ability"
	"github.com/SaucerHedge/agents/internal/audit"
	"github.com/SaucerHedge/agents/internal/conversation"
	"github.com/SaucerHedge/agents/internal/executor"
	"github.com/SaucerHedge/agents/internal/formatter"
	"github.com/SaucerHedge/agents/internal/llm"
	"github.com/SaucerHedge/agents/internal/observability/metrics"
	"github.com/SaucerHedge/agents/pkg/logger"
)

const (
	defaultLLMTimeout = 60 * time.Second

	// defaultGreeting 在模型只返回空文本时兜底。
	defaultGreeting = "I understand. How can I help you with your hedging strategy?"
)

// 审计日志中的轮次结局。
const (
	outcomeText     = "text"
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeModelErr = "model_error"
)

// ChatResponse 是一轮对话的最终回复，每轮恰好产出一个。
type ChatResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	TxHash    string    `json:"tx_hash,omitempty"`
	ToolUsed  string    `json:"tool_used,omitempty"`
}

// Agent 把自由文本请求编排为能力执行：调模型做意图识别，按工具选择
// 执行能力，再渲染为面向用户的回复。
type Agent struct {
	llm        llm.Client
	catalog    ability.Source
	dispatcher *executor.Dispatcher
	formatter  *formatter.Registry
	convs      *conversation.Store
	auditLog   *audit.Log
	llmTimeout time.Duration
	greeting   string
	log        *slog.Logger
}

// Option 定制 Agent 行为。
type Option func(*Agent)

// WithLLMTimeout 设置单次模型调用的超时。
func WithLLMTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.llmTimeout = d
		}
	}
}

// WithGreeting 替换模型空回复时的兜底文案。
func WithGreeting(greeting string) Option {
	return func(a *Agent) {
		if greeting != "" {
			a.greeting = greeting
		}
	}
}

// New 创建代理。
func New(
	client llm.Client,
	catalog ability.Source,
	dispatcher *executor.Dispatcher,
	fmtRegistry *formatter.Registry,
	convs *conversation.Store,
	auditLog *audit.Log,
	opts ...Option,
) *Agent {
	a := &Agent{
		llm:        client,
		catalog:    catalog,
		dispatcher: dispatcher,
		formatter:  fmtRegistry,
		convs:      convs,
		auditLog:   auditLog,
		llmTimeout: defaultLLMTimeout,
		greeting:   defaultGreeting,
		log:        logger.Named("agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ProcessTurn 处理一轮对话并返回唯一的回复。任何失败（模型错误、
// 未知工具、执行失败）都折叠为正常回复，不向调用方抛错。
func (a *Agent) ProcessTurn(ctx context.Context, userMessage, userID string, history []llm.Turn) *ChatResponse {
	start := time.Now()
	cat := a.catalog.Snapshot()

	a.log.Info("开始处理轮次",
		slog.String("user", userID),
		slog.Int("history", len(history)),
		slog.Int("tools", cat.Len()))

	messages := append(append([]llm.Turn{}, history...), llm.Turn{Role: llm.RoleUser, Content: userMessage})

	callCtx, cancel := context.WithTimeout(ctx, a.llmTimeout)
	defer cancel()

	reply, err := a.llm.Complete(callCtx, llm.Request{
		System:   systemPrompt,
		Tools:    cat.Tools(),
		Messages: messages,
	})
	if err != nil {
		a.log.Error("模型调用失败", slog.String("user", userID), slog.String("error", err.Error()))
		resp := a.respond(fmt.Sprintf("I encountered an error processing your request: %s. Please try again.", err.Error()), "", "")
		a.record(userID, userMessage, "", outcomeModelErr, err.Error(), start)
		return resp
	}

	// 第一个 tool_use 块生效，其余忽略；文本块累积为执行前的说明。
	var contextText string
	var toolName string
	var toolInput map[string]any
	for _, block := range reply.Blocks {
		switch block.Kind {
		case llm.BlockText:
			contextText += block.Text
		case llm.BlockToolUse:
			if toolName == "" {
				toolName = block.Name
				toolInput = block.Input
			}
		}
	}

	if toolName == "" {
		content := contextText
		if content == "" {
			content = a.greeting
		}
		resp := a.respond(content, "", "")
		a.record(userID, userMessage, "", outcomeText, content, start)
		return resp
	}

	return a.executeTool(ctx, cat, toolName, toolInput, contextText, userID, userMessage, start)
}

// executeTool 解析工具名、执行能力并渲染结果。
func (a *Agent) executeTool(
	ctx context.Context,
	cat *ability.Catalog,
	toolName string,
	toolInput map[string]any,
	contextText string,
	userID, userMessage string,
	start time.Time,
) *ChatResponse {
	identifier, err := executor.Resolve(cat, toolName)
	if err != nil {
		a.log.Warn("模型选择了未知工具", slog.String("user", userID), slog.String("tool", toolName))
		resp := a.respond(failureMessage(toolName, "unknown tool"), "", "")
		a.record(userID, userMessage, toolName, outcomeFailure, "unknown tool", start)
		return resp
	}

	a.log.Info("执行能力", slog.String("user", userID), slog.String("tool", toolName), slog.String("ability", identifier))

	outcome := a.dispatcher.Execute(ctx, cat, identifier, toolInput)
	if !outcome.OK() {
		resp := a.respond(failureMessage(toolName, outcome.Reason()), "", "")
		a.record(userID, userMessage, toolName, outcomeFailure, outcome.Reason(), start)
		return resp
	}

	content := a.formatter.Render(identifier, outcome.TransactionRef(), outcome.Payload(), contextText)
	resp := a.respond(content, outcome.TransactionRef(), toolName)
	a.record(userID, userMessage, toolName, outcomeSuccess, content, start)
	return resp
}

func failureMessage(toolName, reason string) string {
	return fmt.Sprintf("I attempted to execute %s, but encountered an error: %s. Please try again or rephrase your request.", toolName, reason)
}

func (a *Agent) respond(content, txHash, toolUsed string) *ChatResponse {
	return &ChatResponse{
		ID:        uuid.NewString(),
		Role:      "assistant",
		Content:   content,
		Timestamp: time.Now(),
		TxHash:    txHash,
		ToolUsed:  toolUsed,
	}
}

func (a *Agent) record(userID, userMessage, toolUsed, outcome, detail string, start time.Time) {
	metrics.ObserveTurn(outcome)
	a.auditLog.Record(audit.Entry{
		UserID:         userID,
		UserMessage:    userMessage,
		ToolUsed:       toolUsed,
		Outcome:        outcome,
		Detail:         detail,
		DurationMillis: time.Since(start).Milliseconds(),
	})
}

// History 返回用户的对话历史副本。
func (a *Agent) History(userID string) []llm.Turn {
	return a.convs.Get(userID)
}

// Remember 把一轮对话写入历史，超出容量时淘汰最旧的轮次。
func (a *Agent) Remember(userID, userMessage, assistantMessage string) {
	a.convs.Append(userID, llm.Turn{Role: llm.RoleUser, Content: userMessage})
	a.convs.Append(userID, llm.Turn{Role: llm.RoleAssistant, Content: assistantMessage})
}

// ClearHistory 清空用户的对话历史。
func (a *Agent) ClearHistory(userID string) {
	a.convs.Clear(userID)
	a.log.Info("对话历史已清空", slog.String("user", userID))
}

// QueryAuditLog 查询审计日志，userID 为空时不过滤。
func (a *Agent) QueryAuditLog(userID string, limit int) []audit.Entry {
	return a.auditLog.Query(userID, limit)
}

// Stats 是代理的运行统计。
type Stats struct {
	TotalTurns          uint64 `json:"total_turns"`
	ActiveConversations int    `json:"active_conversations"`
}

// Snapshot 返回当前统计。
func (a *Agent) SnapshotStats() Stats {
	return Stats{
		TotalTurns:          a.auditLog.Total(),
		ActiveConversations: a.convs.ActiveUsers(),
	}
}
