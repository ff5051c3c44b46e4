// Package token 定义引擎调用的稳定币接口，以及用于测试和本地开发的内存实现。
package token

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInsufficientBalance   = errors.New("insufficient balance")

	// ErrTransferPending 转账已广播但未能确认结果，调用方不得假定转账未发生
	ErrTransferPending = errors.New("transfer pending")
)

// Token 稳定币外部协作者
//
// 所有调用都以引擎托管账户的身份发起：TransferFrom 消耗 owner 授予托管账户的额度，
// Transfer 从托管账户转出。实现必须是同步且原子的，失败时不能留下部分效果；
// 无法确认结果时返回 ErrTransferPending。
// 若实现在转账过程中回调引擎，必须透传 ctx。
type Token interface {
	TransferFrom(ctx context.Context, owner, to common.Address, amount uint64) error
	Transfer(ctx context.Context, to common.Address, amount uint64) error
	BalanceOf(ctx context.Context, account common.Address) (uint64, error)
}
