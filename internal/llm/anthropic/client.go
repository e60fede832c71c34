package anthropic

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	xerrors "github.com/SaucerHedge/agents/internal/errors"
	"github.com/SaucerHedge/agents/internal/llm"
)

const (
	// defaultBaseURL 指向 Gemini 的 Anthropic 兼容网关，与线上部署保持一致。
	defaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta/openai/"
	defaultModelName = "gemini-2.5-flash"
	defaultMaxTokens = 2048
	defaultTimeout   = 60 * time.Second
)

// Config 描述调用 Messages API 所需的信息。
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// Client 通过 Anthropic Messages API 完成一次带工具定义的模型调用。
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClient 根据配置创建模型客户端。
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, xerrors.New(xerrors.CodeConfiguration, "未提供模型 API Key")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModelName
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		client: anthropic.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
			option.WithRequestTimeout(timeout),
		),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Complete 实现 llm.Client，每轮对话只发起一次调用。
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Reply, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  convertTurns(req.Messages),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Type: "text", Text: req.System},
		}
	}

	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, tool := range req.Tools {
			tools = append(tools, convertTool(tool))
		}
		params.Tools = tools
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeModelCall, err, "模型调用失败")
	}

	return convertMessage(message), nil
}

// convertTurns 将对话历史按原始顺序转换为 Messages API 的消息格式。
func convertTurns(turns []llm.Turn) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case llm.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	return messages
}

// convertTool 将投影出的工具定义转换为 API 的输入格式。
func convertTool(tool llm.ToolDefinition) anthropic.ToolUnionParam {
	var inputSchema anthropic.ToolInputSchemaParam
	if raw, err := json.Marshal(tool.InputSchema); err == nil {
		_ = json.Unmarshal(raw, &inputSchema)
	}

	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: inputSchema,
		},
	}
}

// convertMessage 将 API 回复转换为有序内容块。
func convertMessage(message *anthropic.Message) *llm.Reply {
	reply := &llm.Reply{Blocks: make([]llm.ContentBlock, 0, len(message.Content))}
	for _, block := range message.Content {
		switch block.Type {
		case "text":
			reply.Blocks = append(reply.Blocks, llm.ContentBlock{
				Kind: llm.BlockText,
				Text: block.Text,
			})
		case "tool_use":
			var input map[string]any
			if raw, err := json.Marshal(block.Input); err == nil {
				_ = json.Unmarshal(raw, &input)
			}
			reply.Blocks = append(reply.Blocks, llm.ContentBlock{
				Kind:  llm.BlockToolUse,
				Name:  block.Name,
				Input: input,
			})
		}
	}
	return reply
}

var _ llm.Client = (*Client)(nil)
