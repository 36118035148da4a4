package container

import (
	"context"

	"scuderia-bot/internal/config"
	"scuderia-bot/internal/openf1"
	"scuderia-bot/internal/repository"
	"scuderia-bot/internal/roster"
	"scuderia-bot/internal/selection"
	"scuderia-bot/internal/service"
	"scuderia-bot/internal/service/auth"
	"scuderia-bot/pkg/database"
	"scuderia-bot/pkg/logger"
	"scuderia-bot/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client
	Rosters     *roster.Store
	PickRepo    repository.PickRepository
	Picker      *service.PickerService
	Selection   *selection.Manager
	Auth        *auth.Service
}

// New creates a new dependency injection container. Redis is optional:
// a missing or unreachable Redis leaves the bot uncached but working.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	openf1Client := openf1.NewClient(cfg.OpenF1BaseURL, cfg.OpenF1MeetingYear, cfg.OpenF1Country, cfg.UpstreamTimeout, log)
	rosters := roster.NewStore(openf1Client, log)

	pickRepo := repository.NewPickRepository(db)
	picker := service.NewPickerService(pickRepo, rosters, redisClient, log)
	flow := selection.NewManager(picker, cfg.SessionIdleTimeout, log)
	authService := auth.NewService(cfg.PlatformTokenSecret, log)

	return &Container{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		RedisClient: redisClient,
		Rosters:     rosters,
		PickRepo:    pickRepo,
		Picker:      picker,
		Selection:   flow,
		Auth:        authService,
	}, nil
}

// Close releases the container's connections.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Error("Failed to close Redis connection")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
