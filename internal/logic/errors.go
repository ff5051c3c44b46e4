package logic

import (
	"errors"

	"github.com/Joshua-Coded/rootrise-ledger/internal/token"
)

// 错误分类。除 ErrTransferPending 外，所有错误都只拒绝当前调用，不产生任何状态变化
var (
	ErrUnauthorized              = errors.New("unauthorized")
	ErrInvalidState              = errors.New("invalid state")
	ErrNoPendingApplication      = errors.New("no pending application")
	ErrAlreadyApproved           = errors.New("already approved")
	ErrSelfContributionForbidden = errors.New("self contribution forbidden")
	ErrBelowMinimumContribution  = errors.New("below minimum contribution")
	ErrInsufficientAllowance     = token.ErrInsufficientAllowance
	ErrInsufficientBalance       = token.ErrInsufficientBalance
	ErrNothingToRefund           = errors.New("nothing to refund")
	ErrContractPaused            = errors.New("contract paused")
	ErrDeadlineNotReached        = errors.New("deadline not reached")
	ErrDeadlinePassed            = errors.New("deadline passed")
	ErrGoalNotMet                = errors.New("goal not met")
	ErrAlreadyReleased           = errors.New("already released")

	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAmountOverflow  = errors.New("amount overflow")
	ErrTransferFailed  = errors.New("token transfer failed")

	// ErrTransferPending 转账结果未知，调用的状态变化与事件照常提交
	ErrTransferPending = token.ErrTransferPending
)

// CodeOK 成功时的错误码
const CodeOK = "ok"

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrUnauthorized, "Unauthorized"},
	{ErrInvalidState, "InvalidState"},
	{ErrNoPendingApplication, "NoPendingApplication"},
	{ErrAlreadyApproved, "AlreadyApproved"},
	{ErrSelfContributionForbidden, "SelfContributionForbidden"},
	{ErrBelowMinimumContribution, "BelowMinimumContribution"},
	{ErrInsufficientAllowance, "InsufficientAllowance"},
	{ErrInsufficientBalance, "InsufficientBalance"},
	{ErrNothingToRefund, "NothingToRefund"},
	{ErrContractPaused, "ContractPaused"},
	{ErrDeadlineNotReached, "DeadlineNotReached"},
	{ErrDeadlinePassed, "DeadlinePassed"},
	{ErrGoalNotMet, "GoalNotMet"},
	{ErrAlreadyReleased, "AlreadyReleased"},
	{ErrProjectNotFound, "ProjectNotFound"},
	{ErrInvalidArgument, "InvalidArgument"},
	{ErrAmountOverflow, "AmountOverflow"},
	{ErrTransferFailed, "TransferFailed"},
	{ErrTransferPending, "TransferPending"},
}

// Code 返回错误对应的分类码；nil 返回 "ok"，未知错误返回 "Internal"
func Code(err error) string {
	if err == nil {
		return CodeOK
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "Internal"
}
