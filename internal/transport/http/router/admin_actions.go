package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-user-service/internal/feature/user"
	httpez "go-user-service/internal/transport/http/ez"
)

// MountAdminActions 管理端接口集中在这里注册
func MountAdminActions(admin *gin.RouterGroup, svc *user.Service) {
	ez := httpez.New(admin)

	// --- GET /admin/v1/users  用户列表（可含软删） ---
	type listQ struct {
		Page        int    `form:"page,default=1"`
		Limit       int    `form:"limit,default=20"`
		SortBy      string `form:"sort_by,default=created_at"`
		SortOrder   string `form:"sort_order,default=desc"`
		Q           string `form:"q"`            // 按姓名/email 模糊搜
		WithDeleted bool   `form:"with_deleted"` // 是否包含软删
	}
	httpez.RegisterAction[listQ, *user.UserPage](ez, httpez.Action[listQ, *user.UserPage]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (*user.UserPage, error) {
			page, err := svc.AdminListUsers(c.Request.Context(), user.ListQuery{
				Page:      in.Page,
				Limit:     in.Limit,
				SortBy:    in.SortBy,
				SortOrder: in.SortOrder,
				Q:         in.Q,
			}, in.WithDeleted)
			if err != nil {
				return nil, httpez.Internal("list users failed", err)
			}
			return page, nil
		},
	})

	// --- POST /admin/v1/users/:id/ban  封禁（软删） ---
	httpez.RegisterAction[struct{}, gin.H](ez, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == "" {
				return nil, httpez.BadRequest("missing id")
			}
			err := svc.DeleteUser(c.Request.Context(), id, false)
			if errors.Is(err, user.ErrNotFound) {
				return nil, httpez.NotFound("user not found")
			}
			if err != nil {
				return nil, httpez.Internal("ban user failed", err)
			}
			return gin.H{"id": id}, nil
		},
	})

	// --- DELETE /admin/v1/users/:id/purge  物理删除，不可恢复 ---
	httpez.RegisterAction[struct{}, gin.H](ez, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/users/:id/purge",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == "" {
				return nil, httpez.BadRequest("missing id")
			}
			err := svc.DeleteUser(c.Request.Context(), id, true)
			if errors.Is(err, user.ErrNotFound) {
				return nil, httpez.NotFound("user not found")
			}
			if err != nil {
				return nil, httpez.Internal("purge user failed", err)
			}
			return gin.H{"id": id}, nil
		},
	})
}
