// Package app wires configuration into the chains and services shared by the
// server and the operator commands.
package app

import (
	"context"
	"fmt"
	"strconv"

	"spreadpool/internal/cache"
	"spreadpool/internal/chain"
	"spreadpool/internal/client"
	"spreadpool/internal/config"
	"spreadpool/internal/models"
	"spreadpool/internal/normalize"
	"spreadpool/internal/repository"
	"spreadpool/internal/season"
	"spreadpool/internal/tally"

	"github.com/rs/zerolog/log"
)

// App holds the connected backends and the chains built over them
type App struct {
	Config   *config.Config
	Calendar *season.Calendar
	DB       *repository.Database
	// Cache is nil when Redis was unreachable at startup
	Cache *cache.RedisCache

	Scores  *chain.Chain[models.Score]
	Spreads *chain.Chain[models.Spread]
	Tallies *chain.Chain[models.Tally]
	Tally   *tally.Engine
}

// New connects Postgres and Redis and builds the chains.
// Postgres is required; without Redis the chains run with no cache tier.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	calendar := cfg.Calendar()

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:       cfg.DatabaseHost,
		Port:       strconv.Itoa(cfg.DatabasePort),
		User:       cfg.DatabaseUser,
		Password:   cfg.DatabasePassword,
		Database:   cfg.DatabaseName,
		SSLMode:    cfg.DatabaseSSLMode,
		Calendar:   calendar,
		StaleAfter: cfg.StoreStaleAfter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.DatabaseMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	a := &App{
		Config:   cfg,
		Calendar: calendar,
		DB:       db,
	}

	redisCache, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     strconv.Itoa(cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
	} else {
		a.Cache = redisCache
		log.Info().Str("addr", cfg.RedisAddr()).Msg("Redis cache connected")
	}

	source := client.NewScoreboardClient(client.Config{
		RegularURL:    cfg.ScoreboardRegURL,
		PostseasonURL: cfg.ScoreboardPostURL,
		Timeout:       cfg.ScoreboardTimeout,
		MaxRetries:    cfg.ScoreboardRetries,
	}, calendar, normalize.DefaultPipeline())

	a.buildChains(source)
	return a, nil
}

func (a *App) buildChains(source chain.Tier[models.Score]) {
	var (
		scoreTiers  []chain.Tier[models.Score]
		spreadTiers []chain.Tier[models.Spread]
		tallyTiers  []chain.Tier[models.Tally]
	)

	if a.Cache != nil {
		rdb := a.Cache.Client()
		year := a.Calendar.Year
		ttl := a.Config.CacheTTL
		scoreTiers = append(scoreTiers, cache.NewSnapshot[models.Score](rdb, cache.ScorePrefix, year, ttl))
		spreadTiers = append(spreadTiers, cache.NewSnapshot[models.Spread](rdb, cache.SpreadPrefix, year, ttl))
		tallyTiers = append(tallyTiers, cache.NewSnapshot[models.Tally](rdb, cache.TallyPrefix, year, ttl))
	}

	scoreTiers = append(scoreTiers, a.DB.Scores, source)
	spreadTiers = append(spreadTiers, a.DB.Spreads)
	tallyTiers = append(tallyTiers, a.DB.Tallies)

	a.Scores = chain.New("scores", a.Calendar, scoreTiers...)
	a.Spreads = chain.New("spreads", a.Calendar, spreadTiers...)
	a.Tallies = chain.New("tallies", a.Calendar, tallyTiers...)
	a.Tally = tally.NewEngine(a.Scores, a.Spreads, a.Tallies, a.Calendar)
}

// Close releases the backends
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	a.DB.Close()
}
