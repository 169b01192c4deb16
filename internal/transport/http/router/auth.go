package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-user-service/internal/core/auth"
	"go-user-service/internal/feature/user"
	httpez "go-user-service/internal/transport/http/ez"
)

// mountAuthActions 登录 + 当前用户
func mountAuthActions(api, authed *gin.RouterGroup, svc *user.Service, jwter *auth.JWTer) {
	ezPublic := httpez.New(api)

	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	type loginOut struct {
		Token string        `json:"token"`
		User  *user.UserDTO `json:"user"`
	}
	httpez.RegisterAction[loginIn, loginOut](ezPublic, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			u, err := svc.Authenticate(c.Request.Context(), in.Email, in.Password)
			switch {
			case errors.Is(err, user.ErrInvalidCredentials):
				return loginOut{}, httpez.Unauthorized("invalid credentials")
			case errors.Is(err, user.ErrInactive):
				return loginOut{}, httpez.Forbidden("user is deactivated")
			case err != nil:
				return loginOut{}, httpez.Internal("login failed", err)
			}
			tok, err := jwter.Issue(u.ID, u.Role)
			if err != nil || tok == "" {
				return loginOut{}, httpez.Internal("issue token failed", err)
			}
			return loginOut{Token: tok, User: u}, nil
		},
	})

	// 鉴权分组（需要登录）
	ezAuth := httpez.New(authed)

	httpez.RegisterAction[struct{}, *user.UserDTO](ezAuth, httpez.Action[struct{}, *user.UserDTO]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*user.UserDTO, error) {
			u, err := svc.GetUser(c.Request.Context(), c.GetString("userId"))
			if errors.Is(err, user.ErrNotFound) {
				return nil, httpez.NotFound("user not found")
			}
			if err != nil {
				return nil, httpez.Internal("db error", err)
			}
			return u, nil
		},
	})
}
