package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"datingapp/internal/apperr"
	"datingapp/internal/config"
	"datingapp/internal/events"
	"datingapp/internal/middleware"
	"datingapp/internal/repository"
	"datingapp/internal/security"
	"datingapp/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type StatsReader interface {
	Snapshot(ctx context.Context) (events.Snapshot, error)
}

// Dependencies are the connections main opens before building handlers.
// Cache may be nil.
type Dependencies struct {
	Stores  *repository.Stores
	Cache   *redis.Client
	Storage service.PhotoStorage
}

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	tokens       *security.TokenIssuer
	authService  *service.AuthService
	roleService  *service.RoleService
	photoService *service.PhotoService
	stats        StatsReader
	db           Pinger
	cache        *redis.Client
	authLimiter  *middleware.RateLimiter
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) (HandlerSet, error) {
	tokens := security.NewTokenIssuer(cfg.Security.TokenSecret, cfg.Security.TokenTTL)
	publisher := events.NewRedisPublisher(deps.Cache, cfg.Redis.Stream)

	limiter, err := middleware.NewRateLimiter(
		cfg.Security.LoginRateLimit,
		cfg.Security.LoginBurst,
		cfg.Security.RateLimitClients,
	)
	if err != nil {
		return HandlerSet{}, err
	}

	users := deps.Stores.Users
	photos := deps.Stores.Photos

	return HandlerSet{
		log:          log,
		cfg:          cfg,
		tokens:       tokens,
		authService:  service.NewAuthService(users, tokens, publisher, log),
		roleService:  service.NewRoleService(users, publisher, log),
		photoService: service.NewPhotoService(photos, users, deps.Storage, publisher, cfg.Storage.MaxUploadBytes, log),
		stats:        events.NewStats(deps.Cache),
		db:           deps.Stores,
		cache:        deps.Cache,
		authLimiter:  limiter,
	}, nil
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	auth := router.Group("/auth")
	auth.Use(h.authLimiter.Middleware())
	{
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
	}

	secured := router.Group("")
	secured.Use(middleware.Authenticate(h.tokens))

	users := secured.Group("/users")
	{
		users.GET("/:id", h.GetUser)
		users.GET("/:id/photos", h.ListUserPhotos)
		users.POST("/:id/photos", h.UploadPhoto)
	}

	admin := secured.Group("/admin")
	{
		requireAdmin := middleware.RequirePolicy(security.PolicyRequireAdminRole)
		moderate := middleware.RequirePolicy(security.PolicyModeratePhoto)

		admin.GET("/getUsersWithRoles", requireAdmin, h.GetUsersWithRoles)
		admin.POST("/editRoles/:userName", requireAdmin, h.EditRoles)

		admin.GET("/getPhotosForModerators", moderate, h.GetPhotosForModerators)
		admin.POST("/approvePhoto/:photoId", moderate, h.ApprovePhoto)
		admin.DELETE("/rejectPhoto/:photoId", moderate, h.RejectPhoto)
		admin.GET("/stats", moderate, h.Stats)
	}
}

// fail hands err to the error middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func bindingError(err error) *apperr.Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]apperr.Detail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, apperr.Detail{
				Code:        "Invalid" + fe.Field(),
				Description: fmt.Sprintf("The %s field failed the '%s' rule.", fe.Field(), fe.Tag()),
			})
		}
		return apperr.Validation("One or more validation errors occurred.", details...)
	}
	return apperr.Validation("Invalid request body", apperr.Detail{
		Code:        "InvalidBody",
		Description: err.Error(),
	})
}

func int64Param(c *gin.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		return 0, apperr.Validation("Invalid "+name, apperr.Detail{
			Code:        "Invalid" + name,
			Description: fmt.Sprintf("%q is not a valid %s.", c.Param(name), name),
		})
	}
	return v, nil
}

// currentUser returns the caller's id and name from the token.
func currentUser(c *gin.Context) (int64, string, error) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return 0, "", apperr.Unauthorized("unauthorized")
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, "", apperr.Unauthorized("invalid_token")
	}
	return id, claims.UniqueName, nil
}
