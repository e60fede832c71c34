package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnvConfigPath 指定配置文件路径的环境变量，优先于命令行默认值。
const EnvConfigPath = "SAUCERHEDGE_CONFIG"

// Config 描述了 SaucerHedge 代理在启动阶段需要加载的核心配置。
type Config struct {
	Server    ServerConfig    `json:"server"`
	LLM       LLMConfig       `json:"llm"`
	Hedera    HederaConfig    `json:"hedera"`
	Abilities AbilitiesConfig `json:"abilities"`
	Vincent   VincentConfig   `json:"vincent"`
	Log       LogConfig       `json:"log"`
	Limits    LimitsConfig    `json:"limits"`
}

// ServerConfig 控制 API 服务的监听地址等参数。
type ServerConfig struct {
	Address string `json:"address"`
}

// LLMConfig 用于配置意图识别模型的调用方式。
type LLMConfig struct {
	Model          string `json:"model"`
	BaseURL        string `json:"base_url"`
	APIKeyEnv      string `json:"api_key_env"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxTokens      int64  `json:"max_tokens"`
}

// HederaConfig 描述能力执行后端。driver 为 simulated 时不接触网络，
// 为 relay 时通过 JSON-RPC relay 调用金库合约。
type HederaConfig struct {
	Driver          string `json:"driver"`
	Network         string `json:"network"`
	RelayRPCURL     string `json:"relay_rpc_url"`
	ContractAddress string `json:"contract_address"`
	OperatorKeyEnv  string `json:"operator_key_env"`
	GasLimit        uint64 `json:"gas_limit"`
	ConfirmAttempts int    `json:"confirm_attempts"`
	ConfirmDelaySec int    `json:"confirm_delay_seconds"`
}

// AbilitiesConfig 描述能力清单与目录刷新。
type AbilitiesConfig struct {
	ManifestPath   string `json:"manifest_path"`
	RefreshSeconds int    `json:"refresh_seconds"`
}

// VincentConfig 描述 Vincent 委托授权的应用信息与授权存储。
type VincentConfig struct {
	AppID       int              `json:"app_id"`
	RedirectURI string           `json:"redirect_uri"`
	ScopeStore  ScopeStoreConfig `json:"scope_store"`
}

// ScopeStoreConfig 选择授权存储后端，memory 或 redis。
type ScopeStoreConfig struct {
	Driver string      `json:"driver"`
	Redis  RedisConfig `json:"redis"`
}

// RedisConfig 描述 Redis 连接参数。
type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// LogConfig 控制结构化日志输出。
type LogConfig struct {
	Level   string   `json:"level"`
	Format  string   `json:"format"`
	Outputs []string `json:"outputs"`
}

// LimitsConfig 控制内存中各类历史的容量上限。
type LimitsConfig struct {
	ConversationMaxTurns int `json:"conversation_max_turns"`
	AuditMaxEntries      int `json:"audit_max_entries"`
}

// Load 负责解析指定路径的 JSON 配置文件。SAUCERHEDGE_CONFIG 环境
// 变量非空时覆盖传入路径。
func Load(path string) (*Config, error) {
	if env := os.Getenv(EnvConfigPath); env != "" {
		path = env
	}
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":3001"
	}

	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.5-flash"
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 2048
	}

	if c.Hedera.Driver == "" {
		c.Hedera.Driver = "simulated"
	}
	if c.Hedera.Network == "" {
		c.Hedera.Network = "testnet"
	}
	if c.Hedera.OperatorKeyEnv == "" {
		c.Hedera.OperatorKeyEnv = "HEDERA_OPERATOR_KEY"
	}

	if c.Abilities.ManifestPath == "" {
		c.Abilities.ManifestPath = filepath.Join(baseDir, "abilities.yaml")
	} else if !filepath.IsAbs(c.Abilities.ManifestPath) {
		c.Abilities.ManifestPath = filepath.Join(baseDir, c.Abilities.ManifestPath)
	}

	if c.Vincent.ScopeStore.Driver == "" {
		c.Vincent.ScopeStore.Driver = "memory"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}
}
