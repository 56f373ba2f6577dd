package cmd

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/redis/go-redis/v9"

	detectorDao "github.com/Laisky/diagnostics-portal/internal/web/detectors/dao"
	detectorSvc "github.com/Laisky/diagnostics-portal/internal/web/detectors/service"
	wsCtrl "github.com/Laisky/diagnostics-portal/internal/web/websearch/controller"
	wsDao "github.com/Laisky/diagnostics-portal/internal/web/websearch/dao"
	wsSvc "github.com/Laisky/diagnostics-portal/internal/web/websearch/service"
	"github.com/Laisky/diagnostics-portal/library/db/mongo"
	rdb "github.com/Laisky/diagnostics-portal/library/db/redis"
	"github.com/Laisky/diagnostics-portal/library/search"
	"github.com/Laisky/diagnostics-portal/library/search/bing"
	"github.com/Laisky/diagnostics-portal/library/search/google"
	"github.com/Laisky/diagnostics-portal/library/search/serpgoogle"
)

const (
	engineBing       = "bing"
	engineGoogle     = "google"
	engineSerpGoogle = "serp_google"

	defaultPollInterval = time.Minute
)

// engineConfig is one entry of settings.websearch.engines.
type engineConfig struct {
	Name     string
	Priority int
	APIKey   string
	CX       string
	Endpoint string
}

// loadEngineConfigs returns the enabled engines.
func loadEngineConfigs() []engineConfig {
	var configs []engineConfig
	for _, name := range []string{engineBing, engineGoogle, engineSerpGoogle} {
		prefix := "settings.websearch.engines." + name + "."
		if !gconfig.Shared.GetBool(prefix + "enabled") {
			continue
		}

		priority := gconfig.Shared.GetInt(prefix + "priority")
		if priority < 1 {
			priority = 1
		}
		configs = append(configs, engineConfig{
			Name:     name,
			Priority: priority,
			APIKey:   strings.TrimSpace(gconfig.Shared.GetString(prefix + "api_key")),
			CX:       strings.TrimSpace(gconfig.Shared.GetString(prefix + "cx")),
			Endpoint: strings.TrimSpace(gconfig.Shared.GetString(prefix + "endpoint")),
		})
	}

	return configs
}

// buildEngineTiers groups engines by ascending priority.
func buildEngineTiers(configs []engineConfig, logger logSDK.Logger) ([][]search.Engine, error) {
	byPriority := map[int][]search.Engine{}
	for _, cfg := range configs {
		var engine search.Engine
		switch cfg.Name {
		case engineBing:
			engine = bing.NewSearchEngine(cfg.APIKey,
				bing.WithEndpoint(cfg.Endpoint),
				bing.WithLogger(logger.Named("bing_search")))
		case engineGoogle:
			adapter, err := search.NewGoogleEngineAdapter(
				google.NewSearchEngine(cfg.APIKey, cfg.CX, google.WithEndpoint(cfg.Endpoint)))
			if err != nil {
				return nil, errors.Wrap(err, "new google engine")
			}
			engine = adapter
		case engineSerpGoogle:
			engine = serpgoogle.NewSearchEngine(cfg.APIKey,
				serpgoogle.WithEndpoint(cfg.Endpoint),
				serpgoogle.WithLogger(logger.Named("serp_google")))
		default:
			return nil, errors.Errorf("unknown search engine %q", cfg.Name)
		}

		byPriority[cfg.Priority] = append(byPriority[cfg.Priority], engine)
	}

	priorities := make([]int, 0, len(byPriority))
	for p := range byPriority {
		priorities = append(priorities, p)
	}
	sort.Ints(priorities)

	tiers := make([][]search.Engine, 0, len(priorities))
	for _, p := range priorities {
		tiers = append(tiers, byPriority[p])
	}

	return tiers, nil
}

// newSearchManager builds the content search provider from settings.
func newSearchManager(logger logSDK.Logger) (*search.Manager, error) {
	tiers, err := buildEngineTiers(loadEngineConfigs(), logger)
	if err != nil {
		return nil, errors.Wrap(err, "build search engines")
	}

	manager, err := search.NewManager(tiers, search.WithLogger(logger.Named("search_manager")))
	if err != nil {
		return nil, errors.Wrap(err, "new search manager")
	}

	return manager, nil
}

// newRedisDB returns nil when no redis address is configured.
func newRedisDB() *rdb.DB {
	addr := strings.TrimSpace(gconfig.Shared.GetString("settings.db.redis.addr"))
	if addr == "" {
		return nil
	}

	return rdb.NewDB(&redis.Options{
		Addr:     addr,
		DB:       gconfig.Shared.GetInt("settings.db.redis.db"),
		Password: gconfig.Shared.GetString("settings.db.redis.password"),
	})
}

// newWebsearchController wires the web search collaborators.
// Redis backs telemetry and the deep search allowlist when configured.
func newWebsearchController(logger logSDK.Logger, redisDB *rdb.DB) (*wsCtrl.Controller, error) {
	manager, err := newSearchManager(logger)
	if err != nil {
		return nil, err
	}

	sinks := wsDao.MultiSink{wsDao.NewLoggerSink(logger.Named("telemetry"))}
	var deepSearch wsSvc.DeepSearchChecker
	if redisDB != nil {
		sinks = append(sinks, wsDao.NewRedisSink(redisDB, logger.Named("telemetry_redis")))
		deepSearch = wsDao.NewRedisDeepSearch(redisDB)
	} else {
		deepSearch = wsDao.NewConfigDeepSearch(
			gconfig.Shared.GetStringSlice("settings.websearch.deep_search.enabled_pes_ids"))
	}

	ctrl, err := wsCtrl.New(manager, deepSearch, sinks, wsCtrl.SettingsFromConfig())
	if err != nil {
		return nil, errors.Wrap(err, "new websearch controller")
	}

	return ctrl, nil
}

// newCategorySource picks mongo when configured, otherwise the static config list.
// The returned closer releases the mongo connection.
func newCategorySource(ctx context.Context, logger logSDK.Logger) (detectorSvc.CategorySource, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	addr := strings.TrimSpace(gconfig.Shared.GetString("settings.db.mongo.addr"))
	if addr == "" {
		src, err := detectorDao.NewStaticSourceFromConfig()
		if err != nil {
			return nil, noop, errors.Wrap(err, "load static categories")
		}
		return src, noop, nil
	}

	db, err := mongo.NewDB(ctx, mongo.DialInfo{
		Addr:   addr,
		DBName: gconfig.Shared.GetString("settings.db.mongo.db"),
		User:   gconfig.Shared.GetString("settings.db.mongo.user"),
		Pwd:    gconfig.Shared.GetString("settings.db.mongo.pwd"),
		AuthDB: gconfig.Shared.GetString("settings.db.mongo.auth_db"),
	})
	if err != nil {
		return nil, noop, errors.Wrap(err, "connect mongo")
	}

	interval := defaultPollInterval
	if secs := gconfig.Shared.GetInt("settings.detectors.poll_interval_seconds"); secs > 0 {
		interval = time.Duration(secs) * time.Second
	}

	src, err := detectorDao.NewMongoSource(db, interval)
	if err != nil {
		_ = db.Close(ctx)
		return nil, noop, errors.Wrap(err, "new mongo category source")
	}

	logger.Info("detector categories from mongo",
		zap.String("addr", addr),
		zap.Duration("interval", interval))
	return src, db.Close, nil
}
