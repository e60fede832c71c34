package hedera

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/SaucerHedge/agents/internal/ability"
)

// SimulatedInvoker 在不接触真实网络的情况下生成与链上执行同构的结果，
// 用于开发与测试环境（driver = simulated）。
type SimulatedInvoker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulatedInvoker 创建模拟执行后端。
func NewSimulatedInvoker() *SimulatedInvoker {
	return &SimulatedInvoker{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Invoke 实现 Invoker。输入先按能力模式校验，再按能力生成模拟载荷。
func (s *SimulatedInvoker) Invoke(_ context.Context, desc ability.Descriptor, input map[string]any) (*Invocation, error) {
	if err := validateInput(desc.InputSchema, input); err != nil {
		return nil, err
	}

	s.mu.Lock()
	txRef := fmt.Sprintf("0x%08x", s.rnd.Uint32())
	positionID := s.rnd.Intn(10000)
	s.mu.Unlock()

	usdc := numberField(input, "amount_usdc")
	hbar := numberField(input, "amount_hbar")

	var payload map[string]any
	switch desc.ShortName {
	case "open-hedged-position":
		payload = map[string]any{
			"position_id":      positionID,
			"lp_allocation":    usdc * 0.79,
			"short_allocation": usdc * 0.21,
		}
	case "close-hedged-position":
		payload = map[string]any{
			"usdc_return": usdc * 1.0135,
			"hbar_return": hbar * 0.81,
		}
	case "deposit-to-vault":
		payload = map[string]any{
			"usdc_shares": usdc,
			"hbar_shares": hbar,
		}
	case "get-position-status":
		payload = map[string]any{
			"position_id":   input["position_id"],
			"lp_value":      159.25,
			"short_value":   41.80,
			"il_protection": 87.5,
		}
	case "open-vault-hedged-position":
		payload = map[string]any{
			"position_id":           positionID,
			"vault_percentage_used": input["vault_percentage"],
		}
	case "close-vault-hedged-position":
		payload = map[string]any{
			"position_id":  input["position_id"],
			"total_return": 0.79,
		}
	default:
		payload = map[string]any{
			"position_id": positionID,
		}
	}

	return &Invocation{TransactionRef: txRef, Payload: payload}, nil
}

// numberField 取出数值字段，缺失或类型不符时返回 0。
func numberField(input map[string]any, key string) float64 {
	switch value := input[key].(type) {
	case float64:
		return value
	case int:
		return float64(value)
	case int64:
		return float64(value)
	default:
		return 0
	}
}

var _ Invoker = (*SimulatedInvoker)(nil)
