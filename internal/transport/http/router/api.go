package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-user-service/internal/core/auth"
	"go-user-service/internal/feature/user"
	mdw "go-user-service/internal/transport/http/middleware"
)

func NewAPIEngine(l *zap.Logger, svc *user.Service, jwter *auth.JWTer) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(l),
		cors.Default(),
	)

	// 健康检查：缓存挂了也算 ok，只是少了快路径
	r.GET("/health", func(c *gin.Context) {
		cacheUp := svc.CacheHealthy(c.Request.Context()) == nil
		c.JSON(http.StatusOK, gin.H{"ok": 1, "cache": cacheUp})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 前缀
	api := r.Group("/api/v1")

	authMW := mdw.AuthJWT(jwter, "")

	// 模块注册
	Register(user.NewModule(svc, authMW, l))
	MountAllAPI(api)

	// 鉴权分组（/me 必须挂这里，才能拿到 userId）
	authed := api.Group("")
	authed.Use(authMW)

	mountAuthActions(api, authed, svc, jwter)

	return r
}
