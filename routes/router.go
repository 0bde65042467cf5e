package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/yatube/cache"
	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/controllers"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

// SetupRouter wires routes, middlewares, and controllers. ginLogger receives the access log.
func SetupRouter(db *gorm.DB, stores cache.Stores, ginLogger *zap.Logger) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.Ginzap(ginLogger, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(ginLogger, false))
	r.Use(middleware.RequestMetrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Authenticate(stores.Tokens))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static(cfg.MediaURL, cfg.MediaRoot)

	images := utils.NewImageStore(cfg.MediaRoot)
	postService := services.NewPostService(db, cfg.PostsPerPage)
	groupService := services.NewGroupService(db)
	userService := services.NewUserService(db)

	postController := controllers.NewPostController(
		postService,
		services.NewCommentService(db),
		groupService,
		services.NewFollowService(db),
		images,
	)
	authController := controllers.NewAuthController(userService, stores.Tokens)
	adminController := controllers.NewAdminController(groupService, postService, images)

	writeLimit := middleware.RateLimitWrites(cfg.RateLimitPerMinute)
	loginRequired := middleware.LoginRequired()

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	authGroup.POST("/signup/", authController.Signup)
	authGroup.POST("/login/", authController.Login)
	authGroup.POST("/logout/", authController.Logout)
	authGroup.GET("/me/", loginRequired, authController.Me)

	admin := r.Group("/admin")
	admin.Use(middleware.AdminRequired(), writeLimit)
	admin.GET("/groups/", adminController.ListGroups)
	admin.POST("/groups/", adminController.CreateGroup)
	admin.PUT("/groups/:slug/", adminController.UpdateGroup)
	admin.DELETE("/groups/:slug/", adminController.DeleteGroup)
	admin.DELETE("/posts/:id/", adminController.DeletePost)

	indexTTL := time.Duration(cfg.IndexCacheSeconds) * time.Second
	r.GET("/", middleware.CachePage(stores.Pages, indexTTL, "index_page"), postController.Index)
	r.GET("/group/:slug/", postController.GroupPosts)
	r.GET("/follow/", loginRequired, postController.FollowIndex)
	r.GET("/new/", loginRequired, postController.NewPostForm)
	r.POST("/new/", loginRequired, writeLimit, postController.CreatePost)

	profile := r.Group("/:username")
	profile.GET("/", postController.Profile)
	profile.POST("/follow/", loginRequired, writeLimit, postController.ProfileFollow)
	profile.POST("/unfollow/", loginRequired, writeLimit, postController.ProfileUnfollow)
	profile.GET("/:post_id/", postController.PostDetail)
	profile.POST("/:post_id/", loginRequired, writeLimit, postController.AddComment)
	profile.GET("/:post_id/edit/", loginRequired, postController.EditPostForm)
	profile.POST("/:post_id/edit/", loginRequired, writeLimit, postController.EditPost)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
