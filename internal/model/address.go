package model

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AddressKey 读模型中地址统一使用小写十六进制
func AddressKey(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// NormalizeAddress 规范化外部输入的地址字符串
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
