package admin

import (
	"net/url"
	"strings"

	"github.com/relicvault/storefront/internal/authz"
	"github.com/relicvault/storefront/internal/constants"
	handlershared "github.com/relicvault/storefront/internal/http/handlers/shared"
	"github.com/relicvault/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

type authzRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type authzPolicyRequest struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

var authzErrorRules = []handlershared.ErrorRule{
	{Target: authz.ErrRoleRequired, Code: response.CodeBadRequest, Key: "error.authz_role_invalid"},
	{Target: authz.ErrRoleReserved, Code: response.CodeBadRequest, Key: "error.authz_role_invalid"},
	{Target: authz.ErrRoleImmutable, Code: response.CodeForbidden, Key: "error.authz_role_immutable"},
	{Target: authz.ErrActionRequired, Code: response.CodeBadRequest, Key: "error.authz_action_required"},
	{Target: authz.ErrUnavailable, Code: response.CodeServiceUnavailable, Key: "error.authz_update_failed"},
}

func respondAuthzError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, authzErrorRules, response.CodeInternal, "error.authz_update_failed")
}

func operatorEmail(c *gin.Context) string {
	return c.GetString(constants.ContextUserEmail)
}

func roleParam(c *gin.Context) string {
	raw := c.Param("role")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.TrimSpace(raw)
}

// GetPolicies 获取当前生效的角色策略
func (h *Handler) GetPolicies(c *gin.Context) {
	policies, err := h.AuthzService.ListPolicies()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, policies)
}

// ListAuthzRoles 获取角色列表，标记预置角色
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	items := make([]gin.H, 0, len(roles))
	for _, role := range roles {
		items = append(items, gin.H{"role": role, "builtin": authz.IsBuiltinRole(role)})
	}
	response.Success(c, items)
}

// CreateAuthzRole 创建自定义角色
func (h *Handler) CreateAuthzRole(c *gin.Context) {
	var req authzRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	requestLog(c).Infow("admin_authz_role_created", "operator", operatorEmail(c), "role", role)
	notify(c, "notice.admin_created", gin.H{"role": role})
}

// DeleteAuthzRole 删除自定义角色
func (h *Handler) DeleteAuthzRole(c *gin.Context) {
	role := roleParam(c)
	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondAuthzError(c, err)
		return
	}
	requestLog(c).Infow("admin_authz_role_deleted", "operator", operatorEmail(c), "role", role)
	notify(c, "notice.admin_deleted", nil)
}

// GetAuthzRolePolicies 获取角色直接持有的策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	policies, err := h.AuthzService.GetRolePolicies(roleParam(c))
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	requestLog(c).Infow("admin_authz_policy_granted",
		"operator", operatorEmail(c),
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)
	notify(c, "notice.admin_updated", nil)
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	requestLog(c).Infow("admin_authz_policy_revoked",
		"operator", operatorEmail(c),
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)
	notify(c, "notice.admin_updated", nil)
}

// ReloadAuthzPolicies 从数据库重新加载策略
func (h *Handler) ReloadAuthzPolicies(c *gin.Context) {
	if err := h.AuthzService.ReloadPolicy(); err != nil {
		respondAuthzError(c, err)
		return
	}
	requestLog(c).Infow("admin_authz_policy_reloaded", "operator", operatorEmail(c))
	notify(c, "notice.admin_updated", nil)
}
