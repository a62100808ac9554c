package container

import (
	"database/sql"
	"strconv"

	"equipment/internal/auditlog"
	"equipment/internal/config"
	"equipment/internal/inventory/assets"
	"equipment/internal/inventory/custody"
	"equipment/internal/middleware"
	"equipment/internal/people"
	"equipment/internal/rate_limiter"
	"equipment/internal/repository"
	"equipment/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const Version = "1.0.0"

type Container struct {
	Repository     *repository.Repository
	Ledger         *auditlog.LedgerRepository
	CustodyService *custody.Service
	CustodyHandler *custody.CustodyHandler
	HealthChecker  *middleware.HealthChecker
	// RateLimit is nil when Redis is not configured.
	RateLimit gin.HandlerFunc
}

// NewAppContainer wires the application graph. redisClient and publisher
// are optional.
func NewAppContainer(
	db *sql.DB,
	cfg *config.Config,
	logger *zap.Logger,
	redisClient redis.Cmdable,
	publisher custody.TransitionPublisher,
) *Container {
	repo := repository.NewRepository(db)
	assetRepo := assets.NewRepository(repo)
	peopleRepo := people.NewRepository(repo)
	ledger := auditlog.NewRepository(repo)

	store := custody.NewPostgresStore(repo, assetRepo, peopleRepo, ledger, cfg.LockTimeout)
	custodyService := custody.NewService(store, publisher, logger.Named("custody"))
	custodyHandler := custody.NewHandler(custodyService, assetRepo, ledger, logger.Named("http"))

	var rateLimit gin.HandlerFunc
	if redisClient != nil {
		limiter := rate_limiter.NewRateLimiter(redisClient, cfg.RateLimit, cfg.RateLimitWindow)
		rateLimit = limiter.Middleware(actorKey, logger.Named("rate_limiter"))
	}

	return &Container{
		Repository:     repo,
		Ledger:         ledger,
		CustodyService: custodyService,
		CustodyHandler: custodyHandler,
		HealthChecker:  middleware.NewHealthChecker(db, Version),
		RateLimit:      rateLimit,
	}
}

func actorKey(c *gin.Context) string {
	if id, err := security.ActorID(c); err == nil {
		return "actor:" + strconv.FormatInt(id, 10)
	}
	return "ip:" + c.ClientIP()
}
