package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// erc20ABI 托管账户用到的 ERC-20 子集
const erc20ABI = `[
	{"constant": false, "inputs": [{"name": "to", "type": "address"}, {"name": "value", "type": "uint256"}], "name": "transfer", "outputs": [{"name": "", "type": "bool"}], "type": "function"},
	{"constant": false, "inputs": [{"name": "from", "type": "address"}, {"name": "to", "type": "address"}, {"name": "value", "type": "uint256"}], "name": "transferFrom", "outputs": [{"name": "", "type": "bool"}], "type": "function"},
	{"constant": true, "inputs": [{"name": "owner", "type": "address"}], "name": "balanceOf", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
	{"constant": true, "inputs": [{"name": "owner", "type": "address"}, {"name": "spender", "type": "address"}], "name": "allowance", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
	{"anonymous": false, "inputs": [{"indexed": true, "name": "from", "type": "address"}, {"indexed": true, "name": "to", "type": "address"}, {"indexed": false, "name": "value", "type": "uint256"}], "name": "Transfer", "type": "event"}
]`

// ParseERC20ABI 解析内置 ABI
func ParseERC20ABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(erc20ABI))
}

// LoadABI 从文件加载 ABI，支持完整编译输出或 ABI 数组
func LoadABI(path string) (abi.ABI, error) {
	abiData, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to load ABI from %s: %w", path, err)
	}

	var compiledOutput struct {
		ABI json.RawMessage `json:"abi"`
	}

	// 首先尝试解析为完整编译输出
	if err := json.Unmarshal(abiData, &compiledOutput); err == nil && compiledOutput.ABI != nil {
		parsedABI, err := abi.JSON(bytes.NewReader(compiledOutput.ABI))
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to parse ABI from compiled output: %w", err)
		}
		return parsedABI, nil
	}

	parsedABI, err := abi.JSON(bytes.NewReader(abiData))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return parsedABI, nil
}

// TransferLog 解析后的 Transfer 事件
type TransferLog struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

// ParseTransfer 解析 Transfer 事件日志，非 Transfer 日志返回 false
func ParseTransfer(contractABI abi.ABI, log types.Log) (TransferLog, bool, error) {
	event, ok := contractABI.Events["Transfer"]
	if !ok || len(log.Topics) != 3 || log.Topics[0] != event.ID {
		return TransferLog{}, false, nil
	}

	values, err := contractABI.Unpack("Transfer", log.Data)
	if err != nil {
		return TransferLog{}, false, fmt.Errorf("failed to unpack Transfer data: %w", err)
	}
	if len(values) != 1 {
		return TransferLog{}, false, fmt.Errorf("unexpected Transfer data: %d values", len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return TransferLog{}, false, fmt.Errorf("unexpected Transfer value type %T", values[0])
	}

	return TransferLog{
		From:  common.BytesToAddress(log.Topics[1].Bytes()),
		To:    common.BytesToAddress(log.Topics[2].Bytes()),
		Value: value,
	}, true, nil
}

// toUint64 链上金额转换为账本金额
func toUint64(v *big.Int) (uint64, error) {
	if v == nil || v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("amount %v does not fit in uint64", v)
	}
	return v.Uint64(), nil
}
