package logic

import (
	"context"
	"fmt"

	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// roleAdmins 每个角色的管理角色
var roleAdmins = map[model.Role]model.Role{
	model.RoleSuperAdmin:         model.RoleSuperAdmin,
	model.RoleAdmin:              model.RoleSuperAdmin,
	model.RoleFarmer:             model.RoleAdmin,
	model.RoleGovernmentObserver: model.RoleAdmin,
}

// RoleAdminOf 返回可授予/撤销 role 的角色
func RoleAdminOf(role model.Role) (model.Role, error) {
	admin, ok := roleAdmins[role]
	if !ok {
		return 0, fmt.Errorf("%w: unknown role %s", ErrInvalidArgument, role)
	}
	return admin, nil
}

// GrantRole 授予角色，调用者需持有该角色的管理角色
func (e *Engine) GrantRole(ctx context.Context, caller common.Address, role model.Role, account common.Address) error {
	return e.execute(ctx, caller, "grant_role", func(_ context.Context, tx *txn) error {
		admin, err := RoleAdminOf(role)
		if err != nil {
			return err
		}
		if account == (common.Address{}) {
			return fmt.Errorf("%w: empty account", ErrInvalidArgument)
		}
		if !tx.hasRole(admin, caller) {
			return fmt.Errorf("%w: granting %s requires %s", ErrUnauthorized, role, admin)
		}
		if !tx.addRole(role, account) {
			return fmt.Errorf("%w: %s already holds %s", ErrInvalidState, account.Hex(), role)
		}

		tx.emit(model.Event{Type: model.EventRoleGranted, Role: role, Subject: account})
		return nil
	})
}

// RevokeRole 撤销角色，调用者需持有该角色的管理角色
func (e *Engine) RevokeRole(ctx context.Context, caller common.Address, role model.Role, account common.Address) error {
	return e.execute(ctx, caller, "revoke_role", func(_ context.Context, tx *txn) error {
		admin, err := RoleAdminOf(role)
		if err != nil {
			return err
		}
		if !tx.hasRole(admin, caller) {
			return fmt.Errorf("%w: revoking %s requires %s", ErrUnauthorized, role, admin)
		}
		if err := tx.dropRole(role, account); err != nil {
			return err
		}

		tx.emit(model.Event{Type: model.EventRoleRevoked, Role: role, Subject: account})
		return nil
	})
}

// RenounceRole 放弃调用者自己的角色
func (e *Engine) RenounceRole(ctx context.Context, caller common.Address, role model.Role) error {
	return e.execute(ctx, caller, "renounce_role", func(_ context.Context, tx *txn) error {
		if !role.Valid() {
			return fmt.Errorf("%w: unknown role %s", ErrInvalidArgument, role)
		}
		if err := tx.dropRole(role, caller); err != nil {
			return err
		}

		tx.emit(model.Event{Type: model.EventRoleRevoked, Role: role, Subject: caller})
		return nil
	})
}

// AddGovernmentOfficial 授予政府监管角色
func (e *Engine) AddGovernmentOfficial(ctx context.Context, caller, official common.Address) error {
	return e.GrantRole(ctx, caller, model.RoleGovernmentObserver, official)
}

// AddFarmer 白名单方式直接授予农户角色
func (e *Engine) AddFarmer(ctx context.Context, caller, farmer common.Address) error {
	return e.GrantRole(ctx, caller, model.RoleFarmer, farmer)
}

// RemoveFarmer 移除农户角色
func (e *Engine) RemoveFarmer(ctx context.Context, caller, farmer common.Address) error {
	return e.RevokeRole(ctx, caller, model.RoleFarmer, farmer)
}

// dropRole SuperAdmin 集合不能被清空
func (tx *txn) dropRole(role model.Role, account common.Address) error {
	if !tx.hasRole(role, account) {
		return fmt.Errorf("%w: %s does not hold %s", ErrInvalidState, account.Hex(), role)
	}
	if role == model.RoleSuperAdmin && len(tx.st.roles[role]) == 1 {
		return fmt.Errorf("%w: cannot remove the last %s", ErrInvalidState, role)
	}
	tx.removeRole(role, account)
	return nil
}

// HasRole 成员检查
func (e *Engine) HasRole(ctx context.Context, role model.Role, account common.Address) bool {
	var ok bool
	e.view(ctx, func(st *state) {
		_, ok = st.roles[role][account]
	})
	return ok
}

// RoleMembers 角色成员，按地址排序
func (e *Engine) RoleMembers(ctx context.Context, role model.Role) []common.Address {
	var members []common.Address
	e.view(ctx, func(st *state) {
		members = make([]common.Address, 0, len(st.roles[role]))
		for account := range st.roles[role] {
			members = append(members, account)
		}
	})
	sortAddresses(members)
	return members
}
