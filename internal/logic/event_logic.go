package logic

import (
	"context"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
)

// Events 审计日志中序号大于 after 的事件，limit <= 0 时返回全部
func (e *Engine) Events(ctx context.Context, after uint64, limit int) []model.Event {
	var out []model.Event
	e.view(ctx, func(st *state) {
		if after >= uint64(len(st.events)) {
			return
		}
		rest := st.events[after:]
		if limit > 0 && limit < len(rest) {
			rest = rest[:limit]
		}
		out = append([]model.Event(nil), rest...)
	})
	return out
}

// LastSeq 最后一条已提交事件的序号
func (e *Engine) LastSeq(ctx context.Context) uint64 {
	var seq uint64
	e.view(ctx, func(st *state) {
		seq = uint64(len(st.events))
	})
	return seq
}
