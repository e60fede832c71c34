package executor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SaucerHedge/agents/internal/ability"
	xerrors "github.com/SaucerHedge/agents/internal/errors"
	"github.com/SaucerHedge/agents/internal/hedera"
	"github.com/SaucerHedge/agents/pkg/logger"
)

// Handler 执行单个能力。默认情况下所有能力共用注入的 hedera.Invoker，
// 按标识符注册 Handler 可以为个别能力替换执行方式。
type Handler func(ctx context.Context, desc ability.Descriptor, input map[string]any) (*hedera.Invocation, error)

// Dispatcher 把模型选择的工具名解析为能力标识符并执行。
type Dispatcher struct {
	invoker hedera.Invoker
	history *History
	log     *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewDispatcher 创建执行分发器，所有能力默认交给 invoker 执行。
func NewDispatcher(invoker hedera.Invoker) *Dispatcher {
	return &Dispatcher{
		invoker:  invoker,
		history:  NewHistory(0),
		log:      logger.Named("executor"),
		handlers: make(map[string]Handler),
	}
}

// Register 为指定能力标识符注册专用 Handler，覆盖默认执行后端。
func (d *Dispatcher) Register(identifier string, h Handler) {
	d.mu.Lock()
	d.handlers[identifier] = h
	d.mu.Unlock()
}

// Resolve 把模型给出的工具名还原为能力完整标识符。短名与完整标识符
// 都接受；两者都查不到时返回 CodeUnknownTool。
func Resolve(cat *ability.Catalog, name string) (string, error) {
	if desc, ok := cat.ByShortName(name); ok {
		return desc.Identifier, nil
	}
	if desc, ok := cat.ByIdentifier(name); ok {
		return desc.Identifier, nil
	}
	return "", xerrors.Newf(xerrors.CodeUnknownTool, "未知工具: %s", name)
}

// Execute 执行目录中标识符对应的能力并返回结构化结果。执行层的所有
// 错误都折叠为失败 Outcome，不向上抛出。
func (d *Dispatcher) Execute(ctx context.Context, cat *ability.Catalog, identifier string, input map[string]any) Outcome {
	start := time.Now()

	desc, ok := cat.ByIdentifier(identifier)
	if !ok {
		outcome := Failure(identifier, "Ability not found")
		d.history.Record(identifier, outcome, time.Since(start))
		return outcome
	}

	inv, err := d.invoke(ctx, *desc, input)
	elapsed := time.Since(start)
	if err != nil {
		d.log.Warn("能力执行失败",
			slog.String("ability", identifier),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", elapsed))
		outcome := Failure(identifier, xerrors.MessageOf(err))
		d.history.Record(identifier, outcome, elapsed)
		return outcome
	}

	d.log.Info("能力执行完成",
		slog.String("ability", identifier),
		slog.String("tx", inv.TransactionRef),
		slog.Duration("elapsed", elapsed))
	outcome := Success(identifier, inv.TransactionRef, inv.Payload)
	d.history.Record(identifier, outcome, elapsed)
	return outcome
}

// History 返回执行历史，供查询接口使用。
func (d *Dispatcher) History() *History { return d.history }

func (d *Dispatcher) invoke(ctx context.Context, desc ability.Descriptor, input map[string]any) (*hedera.Invocation, error) {
	d.mu.RLock()
	h, ok := d.handlers[desc.Identifier]
	d.mu.RUnlock()
	if ok {
		return h(ctx, desc, input)
	}
	return d.invoker.Invoke(ctx, desc, input)
}
