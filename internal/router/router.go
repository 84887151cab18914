package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/weiwangfds/notebox/config"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/handler"
	"github.com/weiwangfds/notebox/internal/i18n"
	"github.com/weiwangfds/notebox/internal/middleware"
	"github.com/weiwangfds/notebox/internal/response"
	authservice "github.com/weiwangfds/notebox/internal/service/auth"
	noteservice "github.com/weiwangfds/notebox/internal/service/note"
	tagservice "github.com/weiwangfds/notebox/internal/service/tag"
	"gorm.io/gorm"
)

// Version 服务版本，由 /api/v1/info 返回
const Version = "1.0.0"

// Router 路由管理器
type Router struct {
	engine *gin.Engine
	db     *gorm.DB
}

// NewRouter 创建路由管理器
// 初始化服务、处理器和中间件并注册所有路由
// 参数:
//   cfg - 应用配置
//   db - 数据库实例
// 返回:
//   *Router - 路由管理器
//   error - 错误信息
func NewRouter(cfg *config.Config, db *gorm.DB) (*Router, error) {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := i18n.GetInstance().RegisterValidator(v); err != nil {
			return nil, fmt.Errorf("register validator translations: %w", err)
		}
	}

	engine := gin.New()

	tokens := authservice.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	authService := authservice.NewAuthService(db, tokens, cfg.Auth.BcryptCost)
	noteService := noteservice.NewNoteService(db)
	tagService := tagservice.NewTagService(db)

	authHandler := handler.NewAuthHandler(authService)
	noteHandler := handler.NewNoteHandler(noteService)
	tagHandler := handler.NewTagHandler(tagService)

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.AccessLog())
	engine.Use(middleware.RequestLogger(middleware.DefaultRequestLoggerConfig()))

	engine.Use(cors.New(corsConfig(cfg.CORS.AllowOrigins)))

	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, apperrors.NotFound())
	})

	handle(&engine.RouterGroup, http.MethodGet, "/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	{
		handle(api, http.MethodGet, "/info", func(c *gin.Context) {
			response.Success(c, gin.H{
				"service": "notebox",
				"version": Version,
				"status":  "running",
			})
		})

		handle(api, http.MethodGet, "/db/status", func(c *gin.Context) {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				response.Fail(c, apperrors.Internal(apperrors.ErrDatabaseQuery, err))
				return
			}
			response.Success(c, gin.H{"status": "Database connection OK"})
		})

		// 无需认证的接口
		handle(api, http.MethodPost, "/register", authHandler.Register)
		handle(api, http.MethodPost, "/token", authHandler.Login)
		handle(api, http.MethodPost, "/token/refresh", authHandler.Refresh)

		protected := api.Group("")
		protected.Use(middleware.JWTAuth(authService))
		{
			handle(protected, http.MethodGet, "/me", authHandler.Me)

			notes := protected.Group("/notes")
			{
				handle(notes, http.MethodGet, "", noteHandler.ListNotes)
				handle(notes, http.MethodPost, "", noteHandler.CreateNote)
				handle(notes, http.MethodPost, "/reorder", noteHandler.ReorderNotes)
				handle(notes, http.MethodGet, "/:id", noteHandler.GetNote)
				handle(notes, http.MethodPut, "/:id", noteHandler.UpdateNote)
				handle(notes, http.MethodPatch, "/:id", noteHandler.PatchNote)
				handle(notes, http.MethodDelete, "/:id", noteHandler.DeleteNote)
			}

			tags := protected.Group("/tags")
			{
				handle(tags, http.MethodGet, "", tagHandler.ListTags)
				handle(tags, http.MethodPost, "", tagHandler.CreateTag)
				handle(tags, http.MethodGet, "/:id", tagHandler.GetTag)
				handle(tags, http.MethodPut, "/:id", tagHandler.UpdateTag)
				handle(tags, http.MethodPatch, "/:id", tagHandler.PatchTag)
				handle(tags, http.MethodDelete, "/:id", tagHandler.DeleteTag)
			}
		}
	}

	return &Router{engine: engine, db: db}, nil
}

// handle 同时注册带和不带尾部斜杠的路径
// 客户端两种形式都会使用，gin 的重定向会跳过中间件链（包括 CORS 响应头）
func handle(g *gin.RouterGroup, method, path string, h gin.HandlerFunc) {
	g.Handle(method, path, h)
	g.Handle(method, path+"/", h)
}

// corsConfig 跨域配置
// 列表为空或包含 "*" 时允许所有来源；只有明确列出来源时才允许携带凭证
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	all := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			all = true
		}
	}
	if all {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}

// DB 获取数据库实例
func (r *Router) DB() *gorm.DB {
	return r.db
}

// GetEngine 获取 gin 引擎
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// ServeHTTP 实现 http.Handler 接口
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}
