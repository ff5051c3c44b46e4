package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/token"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Backend 合约调用与等待回执所需的节点接口，*ethclient.Client 实现了它
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// TokenOptions ERC-20 绑定参数
type TokenOptions struct {
	Address   common.Address
	Key       *ecdsa.PrivateKey
	ChainID   *big.Int
	GasLimit  uint64        // 0 为自动估算
	TxTimeout time.Duration // 发送与等待回执各自的上限，0 时等待回执最多 5 分钟
}

// ERC20Token 以托管账户身份调用链上稳定币
//
// 写操作同步等待交易上链，回执失败或缺少匹配的 Transfer 日志视为转账失败，
// 等不到回执视为结果未知。
type ERC20Token struct {
	backend  Backend
	contract *bind.BoundContract
	abi      abi.ABI
	address  common.Address
	key      *ecdsa.PrivateKey
	holder   common.Address
	chainID  *big.Int
	gasLimit uint64
	timeout  time.Duration
}

var _ token.Token = (*ERC20Token)(nil)

// NewERC20Token 创建绑定
func NewERC20Token(backend Backend, opts TokenOptions) (*ERC20Token, error) {
	if opts.Key == nil {
		return nil, fmt.Errorf("escrow private key is required")
	}
	if opts.ChainID == nil {
		return nil, fmt.Errorf("chain id is required")
	}
	parsedABI, err := ParseERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}

	return &ERC20Token{
		backend:  backend,
		contract: bind.NewBoundContract(opts.Address, parsedABI, backend, backend, backend),
		abi:      parsedABI,
		address:  opts.Address,
		key:      opts.Key,
		holder:   crypto.PubkeyToAddress(opts.Key.PublicKey),
		chainID:  opts.ChainID,
		gasLimit: opts.GasLimit,
		timeout:  opts.TxTimeout,
	}, nil
}

// Holder 托管账户地址
func (t *ERC20Token) Holder() common.Address {
	return t.holder
}

// BalanceOf 查询余额
func (t *ERC20Token) BalanceOf(ctx context.Context, account common.Address) (uint64, error) {
	return t.callAmount(ctx, "balanceOf", account)
}

// Allowance 查询授权额度
func (t *ERC20Token) Allowance(ctx context.Context, owner, spender common.Address) (uint64, error) {
	return t.callAmount(ctx, "allowance", owner, spender)
}

// TransferFrom 先检查额度与余额，再发送 transferFrom 交易
func (t *ERC20Token) TransferFrom(ctx context.Context, owner, to common.Address, amount uint64) error {
	allowed, err := t.Allowance(ctx, owner, t.holder)
	if err != nil {
		return err
	}
	if allowed < amount {
		return fmt.Errorf("%w: %s approved %d, needs %d", token.ErrInsufficientAllowance, owner.Hex(), allowed, amount)
	}
	if err := t.requireBalance(ctx, owner, amount); err != nil {
		return err
	}

	value := new(big.Int).SetUint64(amount)
	return t.transact(ctx, owner, to, value, "transferFrom", owner, to, value)
}

// Transfer 从托管账户转出
func (t *ERC20Token) Transfer(ctx context.Context, to common.Address, amount uint64) error {
	if err := t.requireBalance(ctx, t.holder, amount); err != nil {
		return err
	}

	value := new(big.Int).SetUint64(amount)
	return t.transact(ctx, t.holder, to, value, "transfer", to, value)
}

func (t *ERC20Token) requireBalance(ctx context.Context, account common.Address, amount uint64) error {
	balance, err := t.BalanceOf(ctx, account)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", token.ErrInsufficientBalance, account.Hex(), balance, amount)
	}
	return nil
}

func (t *ERC20Token) callAmount(ctx context.Context, method string, args ...interface{}) (uint64, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return 0, fmt.Errorf("call %s: %w", method, err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("call %s: unexpected %d outputs", method, len(out))
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("call %s: unexpected output type %T", method, out[0])
	}
	return toUint64(value)
}

// defaultMineTimeout TxTimeout 未配置时等待回执的上限
const defaultMineTimeout = 5 * time.Minute

// transact 发送交易并等待回执
//
// 广播之后不再跟随调用方 ctx 取消；超时仍未拿到回执时返回 token.ErrTransferPending。
func (t *ERC20Token) transact(ctx context.Context, from, to common.Address, value *big.Int, method string, args ...interface{}) error {
	sendCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	auth, err := bind.NewKeyedTransactorWithChainID(t.key, t.chainID)
	if err != nil {
		return fmt.Errorf("create transactor: %w", err)
	}
	auth.Context = sendCtx
	auth.GasLimit = t.gasLimit

	tx, err := t.contract.Transact(auth, method, args...)
	if err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}
	logger.Info("Sent %s tx %s (%s -> %s, %s)", method, tx.Hash().Hex(), from.Hex(), to.Hex(), value)

	wait := t.timeout
	if wait <= 0 {
		wait = defaultMineTimeout
	}
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), wait)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, t.backend, tx)
	if err != nil {
		logger.Error("Outcome of %s tx %s unknown, reconcile manually: %v", method, tx.Hash().Hex(), err)
		return fmt.Errorf("%w: %s tx %s: %v", token.ErrTransferPending, method, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%s tx %s reverted in block %s", method, tx.Hash().Hex(), receipt.BlockNumber)
	}
	if !t.receiptHasTransfer(receipt, from, to, value) {
		return fmt.Errorf("%s tx %s emitted no matching Transfer log", method, tx.Hash().Hex())
	}
	return nil
}

// receiptHasTransfer 检查回执中是否有预期的 Transfer 日志
func (t *ERC20Token) receiptHasTransfer(receipt *types.Receipt, from, to common.Address, value *big.Int) bool {
	for _, log := range receipt.Logs {
		if log == nil || log.Address != t.address {
			continue
		}
		transfer, ok, err := ParseTransfer(t.abi, *log)
		if err != nil {
			logger.Warn("Failed to parse log %d of tx %s: %v", log.Index, receipt.TxHash.Hex(), err)
			continue
		}
		if ok && transfer.From == from && transfer.To == to && transfer.Value.Cmp(value) == 0 {
			return true
		}
	}
	return false
}
