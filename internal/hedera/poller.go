package hedera

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
)

// ConfirmationStatus 是确认轮询的三种终态之一。
type ConfirmationStatus string

const (
	StatusConfirmed ConfirmationStatus = "confirmed"
	StatusFailed    ConfirmationStatus = "failed"
	StatusTimedOut  ConfirmationStatus = "timed_out"
)

const (
	defaultConfirmAttempts = 10
	defaultConfirmDelay    = 2 * time.Second
)

// Confirmation 描述一次交易确认的最终结果。
type Confirmation struct {
	Status      ConfirmationStatus
	BlockNumber uint64
}

// receiptSource 只依赖回执查询，便于在测试中替换真实客户端。
type receiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*coretypes.Receipt, error)
}

// ConfirmationPoller 以固定间隔、有限次数轮询交易回执。三种终态
// （confirmed/failed/timed_out）都以返回值给出，不向调用方抛错。
type ConfirmationPoller struct {
	client      receiptSource
	maxAttempts int
	delay       time.Duration
}

// NewConfirmationPoller 创建确认轮询器，参数不合法时使用默认值。
func NewConfirmationPoller(client receiptSource, maxAttempts int, delay time.Duration) *ConfirmationPoller {
	if maxAttempts <= 0 {
		maxAttempts = defaultConfirmAttempts
	}
	if delay <= 0 {
		delay = defaultConfirmDelay
	}
	return &ConfirmationPoller{client: client, maxAttempts: maxAttempts, delay: delay}
}

// Wait 轮询直到回执出现、交易回滚或尝试次数耗尽。上下文取消视作超时。
func (p *ConfirmationPoller) Wait(ctx context.Context, txHash common.Hash) Confirmation {
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		receipt, err := p.client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			if receipt.Status == coretypes.ReceiptStatusSuccessful {
				return Confirmation{Status: StatusConfirmed, BlockNumber: receipt.BlockNumber.Uint64()}
			}
			return Confirmation{Status: StatusFailed, BlockNumber: receipt.BlockNumber.Uint64()}
		}

		select {
		case <-ctx.Done():
			return Confirmation{Status: StatusTimedOut}
		case <-time.After(p.delay):
		}
	}
	return Confirmation{Status: StatusTimedOut}
}
