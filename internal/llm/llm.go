package llm

import "context"

// Role 表示对话消息的发送方。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn 描述一轮对话中的一条消息，按时间顺序回放给模型。
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToolDefinition 是呈现给模型的单个工具定义，字段逐项来自能力描述。
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Request 描述一次模型调用所需的全部上下文。
type Request struct {
	System   string
	Tools    []ToolDefinition
	Messages []Turn
}

// BlockKind 表示模型回复中内容块的类型。
type BlockKind string

const (
	BlockText    BlockKind = "text"
	BlockToolUse BlockKind = "tool_use"
)

// ContentBlock 是模型回复中的一个内容块：文本片段或一次工具调用。
type ContentBlock struct {
	Kind  BlockKind
	Text  string
	Name  string
	Input map[string]any
}

// Reply 保存模型一次回复的有序内容块。
type Reply struct {
	Blocks []ContentBlock
}

// Client 定义调用模型后端的统一接口，每轮对话恰好调用一次。
type Client interface {
	Complete(ctx context.Context, req Request) (*Reply, error)
}
