package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marksync/internal/cache"
	"github.com/MrSnakeDoc/marksync/internal/config"
	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/engine"
	"github.com/MrSnakeDoc/marksync/internal/logger"
	"github.com/MrSnakeDoc/marksync/internal/query"
	"github.com/MrSnakeDoc/marksync/internal/redis"
	"github.com/MrSnakeDoc/marksync/internal/remote"
	filestore "github.com/MrSnakeDoc/marksync/internal/store/file"
	redisstore "github.com/MrSnakeDoc/marksync/internal/store/redis"
	"github.com/MrSnakeDoc/marksync/internal/utils"
)

// Core is the engine with its remote client and state store, without any
// background loop. The daemon and one-shot CLI commands share it.
type Core struct {
	Config *config.Config
	Logger logger.Logger
	Client *remote.Client
	Engine *engine.Engine
	Store  engine.StateStore

	redisClient *goredis.Client
}

// NewCore wires the engine. The query model is seeded from cfg.StartURL.
func NewCore(ctx context.Context, cfg *config.Config, log logger.Logger) (*Core, error) {
	store, redisClient, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	client := remote.NewClient(cfg.ServerURL, cfg.Token,
		&http.Client{Timeout: cfg.RequestTimeout}, log.Named("remote"))

	model := query.New()
	if cfg.StartURL != "" {
		u, err := url.Parse(cfg.StartURL)
		if err != nil {
			return nil, fmt.Errorf("parsing start url: %w", err)
		}
		model.Hydrate(u)
	}

	c := cache.New(log.Named("cache"), nil)
	eng := engine.New(client, model, c, store, log.Named("engine"))
	client.OnUnauthorized(eng.HandleUnauthorized)

	return &Core{
		Config:      cfg,
		Logger:      log,
		Client:      client,
		Engine:      eng,
		Store:       store,
		redisClient: redisClient,
	}, nil
}

// OpenStore returns the Redis state store when MARKSYNC_REDIS_ADDR is set
// and the YAML file store otherwise. The Redis client is nil for the file
// store.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (engine.StateStore, *goredis.Client, error) {
	if cfg.RedisAddr == "" {
		log.Debug("using file state store", logger.String("path", cfg.StateFile))
		return filestore.NewStore(cfg.StateFile, cfg.Profile), nil, nil
	}

	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.Connect(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log.Named("redis"))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return redisstore.NewStore(client, cfg.Profile), client, nil
}

// SearchOnce runs one metadata cycle and one bookmark fetch for q and returns
// the resulting snapshot. It is what the search command prints.
func (c *Core) SearchOnce(ctx context.Context, q domain.SearchQuery, showAll bool, workspaceID string) (engine.Snapshot, error) {
	if err := c.Engine.Restore(ctx); err != nil {
		c.Logger.Warn("failed to restore client state", logger.Error(err))
	}

	model := c.Engine.Query()
	if workspaceID != "" {
		model.SetWorkspace(workspaceID)
	}
	model.SetShowAll(showAll)
	model.SetSearch(q)

	if out := c.Engine.FetchMetadata(ctx); out.Unauthorized {
		return engine.Snapshot{}, remote.ErrUnauthorized
	}
	c.Engine.FetchBookmarks(ctx)

	snap := c.Engine.Snapshot()
	switch {
	case snap.Unauthorized:
		return snap, remote.ErrUnauthorized
	case snap.LastSearchError != "":
		return snap, fmt.Errorf("search failed: %s", snap.LastSearchError)
	}
	return snap, nil
}

// Close releases the engine and the Redis connection.
func (c *Core) Close() {
	c.Engine.Close()
	if c.redisClient != nil {
		utils.CloseLogged(c.redisClient, c.Logger, "redis")
	}
}
