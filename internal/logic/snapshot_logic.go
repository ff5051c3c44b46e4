package logic

import (
	"context"
	"fmt"
	"sort"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/Joshua-Coded/rootrise-ledger/internal/token"
	"github.com/ethereum/go-ethereum/common"
)

// Snapshot 引擎完整状态，可 JSON 编码
type Snapshot struct {
	Roles         []RoleMembers             `json:"roles"`
	Applications  []model.FarmerApplication `json:"applications"`
	Projects      []model.Project           `json:"projects"`
	Contributions []model.Contribution      `json:"contributions"` // 每个项目按名册顺序
	Totals        []model.Contribution      `json:"totals"`        // ProjectID 为 0，Amount 为累计出资
	Engine        model.EngineState         `json:"engine"`
	Events        []model.Event             `json:"events"`
}

// RoleMembers 角色及其成员
type RoleMembers struct {
	Role    model.Role       `json:"role"`
	Members []common.Address `json:"members"`
}

// LastSeq 快照包含的最后事件序号
func (s Snapshot) LastSeq() uint64 {
	return uint64(len(s.Events))
}

// Snapshot 导出当前状态
func (e *Engine) Snapshot(ctx context.Context) Snapshot {
	var snap Snapshot
	e.view(ctx, func(st *state) {
		for _, role := range model.Roles {
			members := make([]common.Address, 0, len(st.roles[role]))
			for account := range st.roles[role] {
				members = append(members, account)
			}
			sortAddresses(members)
			snap.Roles = append(snap.Roles, RoleMembers{Role: role, Members: members})
		}

		for _, app := range st.applications {
			snap.Applications = append(snap.Applications, app)
		}
		sort.Slice(snap.Applications, func(i, j int) bool {
			return lessAddress(snap.Applications[i].FarmerAddress, snap.Applications[j].FarmerAddress)
		})

		for id := uint64(1); id <= st.engine.ProjectCounter; id++ {
			p, ok := st.projects[id]
			if !ok {
				continue
			}
			snap.Projects = append(snap.Projects, p)
			for _, addr := range st.rosters[id] {
				snap.Contributions = append(snap.Contributions, model.Contribution{
					ProjectID:   id,
					Contributor: addr,
					Amount:      st.contributions[id][addr],
				})
			}
		}

		for account, total := range st.totals {
			snap.Totals = append(snap.Totals, model.Contribution{Contributor: account, Amount: total})
		}
		sort.Slice(snap.Totals, func(i, j int) bool {
			return lessAddress(snap.Totals[i].Contributor, snap.Totals[j].Contributor)
		})

		snap.Engine = st.engine
		snap.Events = append([]model.Event(nil), st.events...)
	})
	return snap
}

// RestoreEngine 从快照恢复引擎；限额参数以 settings 为准
func RestoreEngine(snap Snapshot, tok token.Token, settings Settings, opts ...Option) (*Engine, error) {
	if tok == nil {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidArgument)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	st, err := stateFromSnapshot(snap, settings)
	if err != nil {
		return nil, err
	}

	e := newEngine(st, tok, settings, opts...)
	e.metrics.SetPaused(st.engine.Paused)
	e.metrics.SetProjects(st.engine.ProjectCounter)
	e.log.Info("Ledger engine restored (projects: %d, events: %d, paused: %v)",
		st.engine.ProjectCounter, len(st.events), st.engine.Paused)
	return e, nil
}

func stateFromSnapshot(snap Snapshot, settings Settings) (*state, error) {
	st := newState(settings)
	st.engine.Paused = snap.Engine.Paused
	st.engine.ProjectCounter = snap.Engine.ProjectCounter

	for _, rm := range snap.Roles {
		if !rm.Role.Valid() {
			return nil, fmt.Errorf("%w: snapshot has unknown role %s", ErrInvalidArgument, rm.Role)
		}
		for _, account := range rm.Members {
			st.roles[rm.Role][account] = struct{}{}
		}
	}
	if len(st.roles[model.RoleSuperAdmin]) == 0 {
		return nil, fmt.Errorf("%w: snapshot has no super admin", ErrInvalidState)
	}

	for _, app := range snap.Applications {
		st.applications[app.FarmerAddress] = app
	}

	for _, p := range snap.Projects {
		if p.ID == 0 || p.ID > st.engine.ProjectCounter {
			return nil, fmt.Errorf("%w: snapshot project id %d outside counter %d", ErrInvalidState, p.ID, st.engine.ProjectCounter)
		}
		st.projects[p.ID] = p
	}

	sums := make(map[uint64]uint64)
	for _, c := range snap.Contributions {
		if _, ok := st.projects[c.ProjectID]; !ok {
			return nil, fmt.Errorf("%w: contribution for unknown project %d", ErrInvalidState, c.ProjectID)
		}
		ledger, ok := st.contributions[c.ProjectID]
		if !ok {
			ledger = make(map[common.Address]uint64)
			st.contributions[c.ProjectID] = ledger
		}
		if _, dup := ledger[c.Contributor]; dup {
			return nil, fmt.Errorf("%w: duplicate contribution entry for %s on project %d", ErrInvalidState, c.Contributor.Hex(), c.ProjectID)
		}
		ledger[c.Contributor] = c.Amount
		st.rosters[c.ProjectID] = append(st.rosters[c.ProjectID], c.Contributor)

		sum, err := addAmount(sums[c.ProjectID], c.Amount)
		if err != nil {
			return nil, err
		}
		sums[c.ProjectID] = sum
	}
	for id, p := range st.projects {
		if p.AmountRaised != sums[id] {
			return nil, fmt.Errorf("%w: project %d amountRaised %d != ledger sum %d", ErrInvalidState, id, p.AmountRaised, sums[id])
		}
	}

	for _, t := range snap.Totals {
		st.totals[t.Contributor] = t.Amount
	}

	for i, ev := range snap.Events {
		if ev.Seq != uint64(i)+1 {
			return nil, fmt.Errorf("%w: event %d has seq %d", ErrInvalidState, i+1, ev.Seq)
		}
	}
	st.events = append([]model.Event(nil), snap.Events...)
	return st, nil
}

func lessAddress(a, b common.Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func sortAddresses(addrs []common.Address) {
	sort.Slice(addrs, func(i, j int) bool { return lessAddress(addrs[i], addrs[j]) })
}
