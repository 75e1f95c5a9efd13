package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kukey/backend/config"
	"kukey/backend/internal/api/handler"
	"kukey/backend/internal/api/middleware"
	"kukey/backend/pkg/jwt"
	"kukey/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证；登录注册做限流防爆破）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.GET("/check-email", h.Auth.CheckEmail)
			auth.GET("/check-username", h.Auth.CheckUsername)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 用户/积分模块
			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetMe)
				users.GET("/me/point-histories", h.User.GetPointHistory)
				users.GET("/me/point-histories/export", h.User.ExportPointHistory)
				users.POST("/me/items", h.User.PurchaseItem)
			}

			// 课程目录模块
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.List)
				courses.GET("/:id", h.Course.Get)
			}

			// 时间表模块
			timetables := authorized.Group("/timetables")
			{
				timetables.POST("", h.Timetable.Create)
				timetables.GET("", h.Timetable.List)
				timetables.GET("/main", h.Timetable.GetMain)
				timetables.POST("/courses", h.Timetable.AddCourse)
				timetables.DELETE("/courses", h.Timetable.RemoveCourse)
				timetables.GET("/:id", h.Timetable.Get)
				timetables.PATCH("/:id/name", h.Timetable.Rename)
				timetables.PATCH("/:id/main", h.Timetable.SetMain)
				timetables.DELETE("/:id", h.Timetable.Delete)
				timetables.GET("/:id/ics", h.Timetable.ExportICS)
			}

			// 社区评论模块
			posts := authorized.Group("/posts")
			{
				posts.GET("/:id/comments", h.Comment.List)
				posts.POST("/:id/comments", h.Comment.Create)
			}
			comments := authorized.Group("/comments")
			{
				comments.PATCH("/:id", h.Comment.Update)
				comments.DELETE("/:id", h.Comment.Delete)
				comments.POST("/:id/like", h.Comment.ToggleLike)
			}
		}
	}

	return r
}
