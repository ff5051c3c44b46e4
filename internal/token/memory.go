package token

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryLedger 内存稳定币账本，余额/授权语义与 ERC-20 一致
type MemoryLedger struct {
	mu          sync.Mutex
	balances    map[common.Address]uint64
	allowances  map[common.Address]map[common.Address]uint64
	totalSupply uint64
}

// NewMemoryLedger 创建内存账本
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances:   make(map[common.Address]uint64),
		allowances: make(map[common.Address]map[common.Address]uint64),
	}
}

// Mint 铸币
func (l *MemoryLedger) Mint(to common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.totalSupply > math.MaxUint64-amount {
		return fmt.Errorf("mint %d overflows total supply", amount)
	}
	l.totalSupply += amount
	l.balances[to] += amount
	return nil
}

// Approve 设置 owner 给 spender 的授权额度
func (l *MemoryLedger) Approve(owner, spender common.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[common.Address]uint64)
	}
	l.allowances[owner][spender] = amount
}

// Allowance 查询授权额度
func (l *MemoryLedger) Allowance(owner, spender common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner][spender]
}

// Balance 查询余额
func (l *MemoryLedger) Balance(account common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// TotalSupply 总发行量
func (l *MemoryLedger) TotalSupply() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalSupply
}

// transfer 调用方需持有锁
func (l *MemoryLedger) transfer(from, to common.Address, amount uint64) error {
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, from.Hex(), l.balances[from], amount)
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// Bind 返回以 holder 身份调用的 Token
func (l *MemoryLedger) Bind(holder common.Address) *MemoryToken {
	return &MemoryToken{ledger: l, holder: holder}
}

// MemoryToken 绑定到某个持有人（通常是引擎托管账户）的内存稳定币
type MemoryToken struct {
	ledger *MemoryLedger
	holder common.Address
}

var _ Token = (*MemoryToken)(nil)

// Holder 绑定的持有人地址
func (t *MemoryToken) Holder() common.Address {
	return t.holder
}

// Ledger 底层账本
func (t *MemoryToken) Ledger() *MemoryLedger {
	return t.ledger
}

// TransferFrom 消耗 owner 授予 holder 的额度，将 amount 转给 to
func (t *MemoryToken) TransferFrom(_ context.Context, owner, to common.Address, amount uint64) error {
	l := t.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	allowed := l.allowances[owner][t.holder]
	if allowed < amount {
		return fmt.Errorf("%w: %s approved %d, needs %d", ErrInsufficientAllowance, owner.Hex(), allowed, amount)
	}
	if err := l.transfer(owner, to, amount); err != nil {
		return err
	}
	l.allowances[owner][t.holder] = allowed - amount
	return nil
}

// Transfer 从 holder 转出
func (t *MemoryToken) Transfer(_ context.Context, to common.Address, amount uint64) error {
	l := t.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transfer(t.holder, to, amount)
}

// BalanceOf 查询余额
func (t *MemoryToken) BalanceOf(_ context.Context, account common.Address) (uint64, error) {
	return t.ledger.Balance(account), nil
}
