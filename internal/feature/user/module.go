package user

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Module 挂到 /api/v1。注册开放，其余接口要登录
type Module struct {
	h      *Handler
	authMW gin.HandlerFunc
}

func NewModule(svc *Service, authMW gin.HandlerFunc, log *zap.Logger) *Module {
	return &Module{h: NewHandler(svc, log), authMW: authMW}
}

func (m *Module) MountAPI(api *gin.RouterGroup) {
	api.POST("/users", m.h.Create)

	g := api.Group("")
	g.Use(m.authMW)
	g.GET("/users", m.h.List)
	g.GET("/users/:id", m.h.Get)
	g.PUT("/users/:id", m.h.Update)
	g.POST("/users/:id/activate", m.h.Activate)
	g.POST("/users/:id/deactivate", m.h.Deactivate)
	g.DELETE("/users/:id", m.h.Delete)
}

func (m *Module) Priority() int { return 10 }
