package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/configs"
)

// Role 请求方角色，数值越大权限越高.
type Role int

const (
	RoleViewer   Role = iota + 1 // 只读：列表、详情、统计、检索
	RoleReviewer                 // 上传、分类、审核、修改、删除
	RoleAdmin                    // 桶扫描、清理、调度器
)

const roleKey = "docvault.role"

// String 返回角色名.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleReviewer:
		return "reviewer"
	default:
		return "viewer"
	}
}

// ParseRole 解析角色名，未知值返回 fallback.
func ParseRole(s string, fallback Role) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "reviewer":
		return RoleReviewer
	case "viewer":
		return RoleViewer
	default:
		return fallback
	}
}

// RoleMiddleware 确定请求角色：
//   - 未启用认证时所有请求视为 admin（单机部署）
//   - AdminUsers / Reviewers 中列出的身份直接获得对应角色
//   - 否则读取 RoleHeader（默认 X-Role），缺省为 DefaultRole
func RoleMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	admins := toSet(conf.AdminUsers)
	reviewers := toSet(conf.Reviewers)
	fallback := ParseRole(conf.DefaultRole, RoleViewer)

	return func(c *gin.Context) {
		role := RoleAdmin

		if conf.Enabled {
			id := strings.ToLower(Identity(c))

			switch {
			case id != "" && admins[id]:
				role = RoleAdmin
			case id != "" && reviewers[id]:
				role = RoleReviewer
			default:
				role = ParseRole(c.GetHeader(conf.RoleHeader), fallback)
			}
		}

		c.Set(roleKey, role)
		c.Next()
	}
}

// GetRole 返回请求角色，未经过 RoleMiddleware 时 ok 为 false.
func GetRole(c *gin.Context) (Role, bool) {
	v, ok := c.Get(roleKey)
	if !ok {
		return 0, false
	}

	r, ok := v.(Role)

	return r, ok
}

// RequireMinRole 要求最小角色，不满足返回 403. 未挂载 RoleMiddleware 的引擎不做限制.
func RequireMinRole(minRole Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r, ok := GetRole(c); ok && r < minRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "forbidden: requires " + minRole.String() + " role",
			})

			return
		}

		c.Next()
	}
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, s := range items {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out[s] = true
		}
	}

	return out
}
