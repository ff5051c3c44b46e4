package model

import (
	"fmt"
	"strings"
)

// Role 角色标签
type Role uint8

const (
	RoleSuperAdmin Role = iota + 1 // 超级管理员，管理 Admin
	RoleAdmin                      // 平台管理员，管理 Farmer / GovernmentObserver
	RoleFarmer                     // 已审核农户
	RoleGovernmentObserver         // 政府监管方
)

// Roles 全部角色，按固定顺序
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleFarmer, RoleGovernmentObserver}

// String 角色名称
func (r Role) String() string {
	switch r {
	case RoleSuperAdmin:
		return "super_admin"
	case RoleAdmin:
		return "admin"
	case RoleFarmer:
		return "farmer"
	case RoleGovernmentObserver:
		return "government"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Valid 是否为已知角色
func (r Role) Valid() bool {
	return r >= RoleSuperAdmin && r <= RoleGovernmentObserver
}

// ParseRole 解析角色字符串
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "super_admin", "superadmin", "default_admin":
		return RoleSuperAdmin, nil
	case "admin":
		return RoleAdmin, nil
	case "farmer":
		return RoleFarmer, nil
	case "government", "government_observer", "gov":
		return RoleGovernmentObserver, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
