package authz

import (
	"fmt"

	"github.com/relicvault/storefront/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// tablePolicies 列表资源的完整读写权限
func tablePolicies(resource string) []Policy {
	base := "/admin/" + resource
	return []Policy{
		{Object: base, Action: "*"},
		{Object: base + "/*", Action: "*"},
	}
}

// readTablePolicies 列表只读权限：浏览、当前页搜索、行状态与导出
func readTablePolicies(resource string) []Policy {
	base := "/admin/" + resource
	return []Policy{
		{Object: base, Action: "GET"},
		{Object: base + "/view", Action: "GET"},
		{Object: base + "/export.csv", Action: "GET"},
		{Object: base + "/export.pdf", Action: "GET"},
		{Object: base + "/search", Action: "POST"},
		{Object: base + "/select-all", Action: "POST"},
		{Object: base + "/rows/*", Action: "POST"},
	}
}

func joinPolicies(groups ...[]Policy) []Policy {
	var out []Policy
	for _, group := range groups {
		out = append(out, group...)
	}
	return out
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "admin_area",
			Policies: []Policy{
				{Object: "/admin/descriptors", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     constants.RoleAdmin,
			Inherits: []string{"admin_area"},
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
			Immutable: true,
		},
		{
			Role:     constants.RoleCatalogManager,
			Inherits: []string{"admin_area"},
			Policies: joinPolicies(
				tablePolicies(constants.ResourceProducts),
				tablePolicies(constants.ResourceCategories),
				tablePolicies(constants.ResourceTeams),
				[]Policy{{Object: "/admin/upload/validate", Action: "POST"}},
			),
			Immutable: true,
		},
		{
			Role:      constants.RoleModerator,
			Inherits:  []string{"admin_area"},
			Policies:  tablePolicies(constants.ResourceReviews),
			Immutable: true,
		},
		{
			Role:     constants.RoleSupport,
			Inherits: []string{"admin_area"},
			Policies: joinPolicies(
				readTablePolicies(constants.ResourceUsers),
				readTablePolicies(constants.ResourceOrders),
			),
			Immutable: true,
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor); err != nil {
			return fmt.Errorf("create builtin role failed: %w", err)
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
