package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/SaucerHedge/agents/internal/ability"
	"github.com/SaucerHedge/agents/internal/agent"
	"github.com/SaucerHedge/agents/internal/api"
	"github.com/SaucerHedge/agents/internal/audit"
	"github.com/SaucerHedge/agents/internal/config"
	"github.com/SaucerHedge/agents/internal/conversation"
	"github.com/SaucerHedge/agents/internal/executor"
	"github.com/SaucerHedge/agents/internal/formatter"
	"github.com/SaucerHedge/agents/internal/hedera"
	"github.com/SaucerHedge/agents/internal/llm/anthropic"
	"github.com/SaucerHedge/agents/internal/vincent"
	"github.com/SaucerHedge/agents/pkg/logger"
)

// main 是 SaucerHedge 代理守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("saucerhedged 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := filepath.Join("configs", "saucerhedge.json")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.Outputs,
	}); err != nil {
		return err
	}
	defer logger.Sync()

	// 初始化意图识别模型客户端。
	apiKey := strings.TrimSpace(os.Getenv(cfg.LLM.APIKeyEnv))
	llmClient, err := anthropic.NewClient(anthropic.Config{
		APIKey:    apiKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return err
	}

	// 加载能力清单并做首次目录刷新。短名冲突属于配置错误，直接拒绝启动。
	manifest, err := ability.LoadManifest(cfg.Abilities.ManifestPath)
	if err != nil {
		return err
	}
	loader := ability.NewLoader(manifest)
	if err := loader.Refresh(ctx); err != nil {
		return err
	}
	if cfg.Abilities.RefreshSeconds > 0 {
		go refreshLoop(ctx, loader, time.Duration(cfg.Abilities.RefreshSeconds)*time.Second)
	}

	// 选择能力执行后端。
	var invoker hedera.Invoker
	switch cfg.Hedera.Driver {
	case "", "simulated":
		invoker = hedera.NewSimulatedInvoker()
	case "relay":
		contractInvoker, err := hedera.NewContractInvoker(ctx, hedera.ContractConfig{
			RPCURL:          cfg.Hedera.RelayRPCURL,
			ContractAddress: cfg.Hedera.ContractAddress,
			OperatorKey:     os.Getenv(cfg.Hedera.OperatorKeyEnv),
			Network:         cfg.Hedera.Network,
			GasLimit:        cfg.Hedera.GasLimit,
			ConfirmAttempts: cfg.Hedera.ConfirmAttempts,
			ConfirmDelay:    time.Duration(cfg.Hedera.ConfirmDelaySec) * time.Second,
		})
		if err != nil {
			return err
		}
		defer contractInvoker.Close()
		invoker = contractInvoker
	default:
		return fmt.Errorf("未知的执行后端驱动: %s", cfg.Hedera.Driver)
	}

	// 选择授权存储后端。
	var scopeStore vincent.ScopeStore
	switch cfg.Vincent.ScopeStore.Driver {
	case "", "memory":
		scopeStore = vincent.NewMemoryStore()
	case "redis":
		redisStore, err := vincent.NewRedisStore(vincent.RedisConfig{
			Address:  cfg.Vincent.ScopeStore.Redis.Address,
			Password: cfg.Vincent.ScopeStore.Redis.Password,
			DB:       cfg.Vincent.ScopeStore.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer redisStore.Close()
		scopeStore = redisStore
	default:
		return fmt.Errorf("未知的授权存储驱动: %s", cfg.Vincent.ScopeStore.Driver)
	}

	ag := agent.New(
		llmClient,
		loader,
		executor.NewDispatcher(invoker),
		formatter.NewRegistry(cfg.Hedera.Network),
		conversation.NewStore(cfg.Limits.ConversationMaxTurns),
		audit.NewLog(cfg.Limits.AuditMaxEntries),
		agent.WithLLMTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second),
	)

	vincentService := vincent.NewService(cfg.Vincent.AppID, cfg.Vincent.RedirectURI, scopeStore, loader)

	server := api.NewServer(cfg.Server.Address, ag, vincentService)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// refreshLoop 周期性刷新能力目录，刷新失败保留旧快照。
func refreshLoop(ctx context.Context, loader *ability.Loader, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := loader.Refresh(ctx); err != nil {
				log.Printf("能力目录刷新失败: %v", err)
			}
		}
	}
}
