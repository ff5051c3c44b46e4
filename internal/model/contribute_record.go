package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// Contribution 单个贡献者在某项目上的账本记录
type Contribution struct {
	ProjectID   uint64         `json:"projectId"`
	Contributor common.Address `json:"contributor"`
	Amount      uint64         `json:"amount"`
}
