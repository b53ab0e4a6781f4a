// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/goodabcdef/instagram-project/docs" // swagger docs
	"github.com/goodabcdef/instagram-project/internal/auth"
	"github.com/goodabcdef/instagram-project/internal/bootstrap"
	"github.com/goodabcdef/instagram-project/internal/config"
	"github.com/goodabcdef/instagram-project/internal/featureflags"
	"github.com/goodabcdef/instagram-project/internal/middleware"
	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/notifications"
	"github.com/goodabcdef/instagram-project/internal/repository"
	"github.com/goodabcdef/instagram-project/internal/service"
	"github.com/goodabcdef/instagram-project/internal/social"
	"github.com/goodabcdef/instagram-project/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	store          storage.Store
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager

	authService     *service.AuthService
	userService     *service.UserService
	postService     *service.PostService
	commentService  *service.CommentService
	likeService     *service.ReactionService
	bookmarkService *service.ReactionService
	followService   *service.FollowService
	searchService   *service.SearchService
	adminService    *service.AdminService
}

// Option overrides a dependency NewServerWithDeps would otherwise build
// from configuration.
type Option func(*deps)

type deps struct {
	store    storage.Store
	kakao    service.KakaoBridge
	firebase service.IdentityVerifier
}

// WithStore sets the image storage backend.
func WithStore(store storage.Store) Option {
	return func(d *deps) { d.store = store }
}

// WithKakao sets the Kakao bridge.
func WithKakao(k service.KakaoBridge) Option {
	return func(d *deps) { d.kakao = k }
}

// WithFirebase sets the Firebase identity verifier.
func WithFirebase(v service.IdentityVerifier) Option {
	return func(d *deps) { d.firebase = v }
}

// NewServer connects to the database and Redis and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	d := &deps{}
	for _, opt := range opts {
		opt(d)
	}
	if d.store == nil {
		store, err := newStore(cfg)
		if err != nil {
			return nil, fmt.Errorf("storage setup failed: %w", err)
		}
		d.store = store
	}
	if d.kakao == nil && cfg.KakaoClientID != "" {
		d.kakao = social.NewKakaoProvider(social.KakaoConfig{
			ClientID:     cfg.KakaoClientID,
			ClientSecret: cfg.KakaoClientSecret,
			RedirectURI:  cfg.KakaoRedirectURI,
			AuthURL:      cfg.KakaoAuthURL,
			TokenURL:     cfg.KakaoTokenURL,
			UserInfoURL:  cfg.KakaoUserInfoURL,
			Timeout:      cfg.SocialHTTPTimeout(),
		})
	}
	if d.firebase == nil && cfg.FirebaseProjectID != "" {
		d.firebase = social.NewFirebaseVerifier(social.FirebaseConfig{
			ProjectID: cfg.FirebaseProjectID,
			JWKSURL:   cfg.FirebaseJWKSURL,
			Timeout:   cfg.SocialHTTPTimeout(),
		})
	}

	models.HideDetails = cfg.Env != "development"

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("instagram-api"),
		userRepo:       userRepo,
		postRepo:       postRepo,
		store:          d.store,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	// A nil Redis client makes the notifier a no-op.
	server.notifier = notifications.NewNotifier(redisClient)
	if redisClient != nil {
		server.hub = notifications.NewHub()
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:   cfg.JWTSecret,
		TTL:      cfg.JWTTTL(),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		return nil, fmt.Errorf("token service setup failed: %w", err)
	}

	server.authService = service.NewAuthService(service.AuthServiceConfig{
		Users:    userRepo,
		Hasher:   auth.NewHasher(cfg.BcryptCost),
		Tokens:   tokens,
		Kakao:    d.kakao,
		Firebase: d.firebase,
		Flags:    server.featureFlags,
		AutoLink: cfg.SocialAutoLink,
	})
	server.userService = service.NewUserService(userRepo)
	images := service.NewImageService(d.store, cfg.MaxUploadBytes())
	server.postService = service.NewPostService(postRepo, images, server.isAdminByUserID)
	server.commentService = service.NewCommentService(commentRepo, postRepo, server.isAdminByUserID, server.notifier)
	server.likeService = service.NewLikeService(repository.NewLikeRepository(db), postRepo, server.notifier)
	server.bookmarkService = service.NewBookmarkService(repository.NewBookmarkRepository(db), postRepo)
	server.followService = service.NewFollowService(followRepo, userRepo, server.notifier)
	server.searchService = service.NewSearchService(userRepo, postRepo)
	server.adminService = service.NewAdminService(server.userService, server.postService)

	return server, nil
}

func newStore(cfg *config.Config) (storage.Store, error) {
	if cfg.StorageDriver == "s3" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
	}
	dir := cfg.UploadDir
	if dir == "" {
		dir = "uploads"
	}
	return storage.NewLocalStore(dir, cfg.PublicBaseURL+"/uploads")
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Root)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Instagram API Metrics",
	}))
	app.Get("/swagger/*", swagger.HandlerDefault)

	if local, ok := s.store.(*storage.LocalStore); ok {
		app.Static("/uploads", local.Dir())
	}

	authRequired := s.AuthRequired()

	// Auth
	app.Post("/signup", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	app.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	providers := app.Group("/auth")
	providers.Get("/kakao", s.KakaoAuthURL)
	providers.Get("/kakao/callback", middleware.RateLimit(s.redis, 10, 5*time.Minute, "kakao_login"), s.KakaoCallback)
	providers.Post("/firebase", middleware.RateLimit(s.redis, 10, 5*time.Minute, "firebase_login"), s.FirebaseLogin)

	// Users
	users := app.Group("/users")
	users.Get("/me", authRequired, s.GetMyProfile)
	users.Put("/me", authRequired, s.UpdateMyProfile)
	users.Delete("/me", authRequired, s.DeleteMyAccount)
	users.Get("/:id/follows/stats", s.GetFollowStats)
	users.Get("/:id", s.GetUserProfile)

	// Posts
	posts := app.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/user/:id", s.GetUserPosts)
	posts.Get("/:id", s.GetPost)
	posts.Post("/", authRequired, middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	// Comments
	comments := app.Group("/comments")
	comments.Get("/", s.GetComments)
	comments.Post("/", authRequired, middleware.RateLimit(s.redis, 30, time.Minute, "create_comment"), s.CreateComment)
	comments.Delete("/:id", authRequired, s.DeleteComment)

	// Likes and bookmarks
	likes := app.Group("/likes", authRequired)
	likes.Get("/me", s.GetMyLikes)
	likes.Post("/", s.LikePost)
	likes.Delete("/:postId", s.UnlikePost)

	bookmarks := app.Group("/bookmarks", authRequired)
	bookmarks.Get("/me", s.GetMyBookmarks)
	bookmarks.Post("/", s.BookmarkPost)
	bookmarks.Delete("/:postId", s.RemoveBookmark)

	// Follows
	follows := app.Group("/follows", authRequired)
	follows.Get("/followers", s.GetFollowers)
	follows.Get("/followings", s.GetFollowings)
	follows.Post("/:targetId", middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.Follow)
	follows.Delete("/:targetId", s.Unfollow)

	// Search
	search := app.Group("/search", middleware.RateLimit(s.redis, 30, time.Minute, "search"))
	search.Get("/users", s.SearchUsersByNickname)
	search.Get("/users/id", s.SearchUsersByEmail)
	search.Get("/posts", s.SearchPosts)
	search.Get("/hashtags/:name", s.SearchHashtag)

	// Notifications
	app.Post("/ws/ticket", authRequired, s.IssueWSTicket)
	app.Get("/ws", authRequired, s.NotificationsSocket())

	// Admin
	admin := app.Group("/admin", authRequired, s.AdminRequired())
	admin.Get("/users", s.AdminListUsers)
	admin.Delete("/users/:id", s.AdminBanUser)
	admin.Put("/users/:id/admin", s.AdminSetAdmin)
	admin.Delete("/posts/:id", s.AdminDeletePost)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Instagram API",
		BodyLimit:    int(s.config.MaxUploadBytes()) + 1024*1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
		}
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
