package hedera

import (
	"context"
	"crypto/ecdsa"
	"log/slog"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/SaucerHedge/agents/internal/ability"
	xerrors "github.com/SaucerHedge/agents/internal/errors"
	"github.com/SaucerHedge/agents/pkg/logger"
)

const defaultGasLimit = 1_000_000

// 资产精度：USDC 6 位小数，HBAR 8 位小数。
const (
	usdcScale = 1e6
	hbarScale = 1e8
)

// vaultABI 描述 SaucerHedge 金库合约暴露给代理的函数集合。
const vaultABI = `[
  {"type":"function","name":"openPosition","stateMutability":"nonpayable","inputs":[{"name":"usdcAmount","type":"uint256"},{"name":"hbarAmount","type":"uint256"},{"name":"owner","type":"address"}],"outputs":[]},
  {"type":"function","name":"closePosition","stateMutability":"nonpayable","inputs":[{"name":"positionId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"deposit","stateMutability":"nonpayable","inputs":[{"name":"usdcAmount","type":"uint256"},{"name":"hbarAmount","type":"uint256"},{"name":"owner","type":"address"}],"outputs":[]},
  {"type":"function","name":"positionStatus","stateMutability":"nonpayable","inputs":[{"name":"positionId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"openVaultPosition","stateMutability":"nonpayable","inputs":[{"name":"vaultPercentage","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"closeVaultPosition","stateMutability":"nonpayable","inputs":[{"name":"positionId","type":"uint256"}],"outputs":[]}
]`

// ContractConfig 描述通过 Hedera JSON-RPC relay 调用金库合约所需的信息。
type ContractConfig struct {
	// RPCURL 是 JSON-RPC relay 地址，Hedera 对外暴露 EVM 兼容接口。
	RPCURL string
	// ContractAddress 是金库合约的 EVM 地址。
	ContractAddress string
	// OperatorKey 是操作账户的十六进制 ECDSA 私钥。
	OperatorKey string
	// Network 仅用于日志与链接展示（mainnet/testnet/previewnet）。
	Network string

	GasLimit        uint64
	ConfirmAttempts int
	ConfirmDelay    time.Duration
}

// ContractInvoker 把能力调用翻译为金库合约的链上交易，并等待确认。
type ContractInvoker struct {
	eth      *ethclient.Client
	contract common.Address
	key      *ecdsa.PrivateKey
	from     common.Address
	gasLimit uint64
	chainID  *big.Int
	network  string
	abi      abi.ABI
	poller   *ConfirmationPoller
	log      *slog.Logger

	// 串行化 nonce 读取与发送，避免并发轮次互相覆盖。
	mu sync.Mutex
}

// NewContractInvoker 连接 relay 节点并准备好合约调用所需的一切。
func NewContractInvoker(ctx context.Context, cfg ContractConfig) (*ContractInvoker, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, xerrors.New(xerrors.CodeConfiguration, "未配置 JSON-RPC relay 地址")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, xerrors.Newf(xerrors.CodeConfiguration, "非法的合约地址: %s", cfg.ContractAddress)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.OperatorKey), "0x"))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfiguration, err, "解析操作账户私钥失败")
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfiguration, err, "连接 relay 节点失败")
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, xerrors.Wrap(xerrors.CodeConfiguration, err, "获取链 ID 失败")
	}

	parsed, err := abi.JSON(strings.NewReader(vaultABI))
	if err != nil {
		eth.Close()
		return nil, xerrors.Wrap(xerrors.CodeConfiguration, err, "解析金库合约 ABI 失败")
	}

	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = defaultGasLimit
	}

	return &ContractInvoker{
		eth:      eth,
		contract: common.HexToAddress(cfg.ContractAddress),
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		gasLimit: gasLimit,
		chainID:  chainID,
		network:  cfg.Network,
		abi:      parsed,
		poller:   NewConfirmationPoller(eth, cfg.ConfirmAttempts, cfg.ConfirmDelay),
		log:      logger.Named("hedera"),
	}, nil
}

// Close 释放网络连接。
func (c *ContractInvoker) Close() {
	if c != nil && c.eth != nil {
		c.eth.Close()
	}
}

// callSpec 描述一个能力对应的合约函数及参数映射。
type callSpec struct {
	method string
	args   func(c *ContractInvoker, input map[string]any) ([]any, error)
}

var callSpecs = map[string]callSpec{
	"open-hedged-position": {
		method: "openPosition",
		args: func(c *ContractInvoker, input map[string]any) ([]any, error) {
			return []any{
				scaledAmount(numberField(input, "amount_usdc"), usdcScale),
				scaledAmount(numberField(input, "amount_hbar"), hbarScale),
				c.from,
			}, nil
		},
	},
	"close-hedged-position": {
		method: "closePosition",
		args: func(_ *ContractInvoker, input map[string]any) ([]any, error) {
			return positionArgs(input)
		},
	},
	"deposit-to-vault": {
		method: "deposit",
		args: func(c *ContractInvoker, input map[string]any) ([]any, error) {
			return []any{
				scaledAmount(numberField(input, "amount_usdc"), usdcScale),
				scaledAmount(numberField(input, "amount_hbar"), hbarScale),
				c.from,
			}, nil
		},
	},
	"get-position-status": {
		method: "positionStatus",
		args: func(_ *ContractInvoker, input map[string]any) ([]any, error) {
			return positionArgs(input)
		},
	},
	"open-vault-hedged-position": {
		method: "openVaultPosition",
		args: func(_ *ContractInvoker, input map[string]any) ([]any, error) {
			return []any{scaledAmount(numberField(input, "vault_percentage"), 1)}, nil
		},
	},
	"close-vault-hedged-position": {
		method: "closeVaultPosition",
		args: func(_ *ContractInvoker, input map[string]any) ([]any, error) {
			return positionArgs(input)
		},
	},
}

// Invoke 实现 Invoker：校验输入、打包参数、签名发送并等待确认。
func (c *ContractInvoker) Invoke(ctx context.Context, desc ability.Descriptor, input map[string]any) (*Invocation, error) {
	if err := validateInput(desc.InputSchema, input); err != nil {
		return nil, err
	}

	spec, ok := callSpecs[desc.ShortName]
	if !ok {
		return nil, xerrors.Newf(xerrors.CodeAbilityExecution, "能力 %s 没有对应的合约调用", desc.ShortName)
	}

	args, err := spec.args(c, input)
	if err != nil {
		return nil, err
	}

	data, err := c.abi.Pack(spec.method, args...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeAbilityExecution, err, "打包合约参数失败")
	}

	c.mu.Lock()
	signed, err := c.buildAndSign(ctx, data)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeAbilityExecution, err, "发送交易失败")
	}

	txRef := signed.Hash().Hex()
	c.log.Info("交易已提交",
		slog.String("ability", desc.ShortName),
		slog.String("function", spec.method),
		slog.String("tx", txRef))

	conf := c.poller.Wait(ctx, signed.Hash())
	switch conf.Status {
	case StatusConfirmed:
		return &Invocation{
			TransactionRef: txRef,
			Payload: map[string]any{
				"status":       string(StatusConfirmed),
				"function":     spec.method,
				"block_number": conf.BlockNumber,
				"network":      c.network,
			},
		}, nil
	case StatusFailed:
		return nil, xerrors.Newf(xerrors.CodeAbilityExecution, "交易 %s 已回滚", txRef)
	default:
		return nil, xerrors.Newf(xerrors.CodeTimeout, "等待交易 %s 确认超时", txRef)
	}
}

// buildAndSign 读取 nonce 与 gas 价格并对交易签名。
func (c *ContractInvoker) buildAndSign(ctx context.Context, data []byte) (*coretypes.Transaction, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeAbilityExecution, err, "获取 nonce 失败")
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeAbilityExecution, err, "获取 gas 价格失败")
	}

	tx := coretypes.NewTx(&coretypes.LegacyTx{
		Nonce:    nonce,
		To:       &c.contract,
		Gas:      c.gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := coretypes.SignTx(tx, coretypes.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeAbilityExecution, err, "交易签名失败")
	}
	return signed, nil
}

// scaledAmount 把人类可读的数量按资产精度转换为整数。
func scaledAmount(value float64, scale float64) *big.Int {
	if value < 0 {
		value = 0
	}
	return big.NewInt(int64(math.Floor(value * scale)))
}

// positionArgs 解析 position_id 字段，字符串与数值形式都接受。
func positionArgs(input map[string]any) ([]any, error) {
	switch value := input["position_id"].(type) {
	case string:
		id, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
		if !ok {
			return nil, xerrors.Newf(xerrors.CodeInvalidArgument, "非法的 position_id: %s", value)
		}
		return []any{id}, nil
	case float64:
		return []any{big.NewInt(int64(value))}, nil
	case int:
		return []any{big.NewInt(int64(value))}, nil
	case nil:
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "缺少 position_id")
	default:
		return nil, xerrors.Newf(xerrors.CodeInvalidArgument, "非法的 position_id 类型: %T", value)
	}
}

var _ Invoker = (*ContractInvoker)(nil)
