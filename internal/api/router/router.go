package router

import (
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"markline/backend/config"
	"markline/backend/internal/api/handler"
	"markline/backend/internal/api/middleware"
	"markline/backend/pkg/jwt"
)

// Setup builds the Gin engine with the full route table.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *goredis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── health check ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// login endpoints, rate-limited against badge brute-forcing
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 30, time.Minute))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/admin", h.Auth.AdminLogin)
		}

		// operator routes (badge token)
		operator := v1.Group("")
		operator.Use(middleware.JWTAuth(jwtMgr), middleware.RoleAuth(jwt.RoleOperator))
		{
			operator.POST("/auth/logout", h.Auth.Logout)
			operator.POST("/scan", h.Scan.Scan)
			operator.GET("/session/state", h.Scan.State)
		}

		// admin console routes
		admin := v1.Group("")
		admin.Use(middleware.JWTAuth(jwtMgr), middleware.RoleAuth(jwt.RoleAdmin))
		{
			orders := admin.Group("/orders")
			{
				orders.POST("", h.Order.Create)
				orders.GET("", h.Order.List)
				orders.GET("/:id", h.Order.Get)
				orders.PUT("/:id/activate", h.Order.Activate)
				orders.PUT("/:id/close", h.Order.Close)
				orders.GET("/:id/passes", h.Order.Passes)
				orders.GET("/:id/aggregations", h.Order.Aggregations)
				orders.DELETE("/:id/aggregations/:parent", h.Order.DeletePackage)
				orders.GET("/:id/report", h.Export.AggregationReport)
				orders.GET("/:id/correction-report", h.Export.CorrectionReport)
				orders.POST("/:id/sscc", h.Order.NextSSCC)
			}
		}
	}

	return r
}
