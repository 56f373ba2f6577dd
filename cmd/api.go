package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	mcpServer "github.com/Laisky/diagnostics-portal/internal/mcp"
	mcpTools "github.com/Laisky/diagnostics-portal/internal/mcp/tools"
	"github.com/Laisky/diagnostics-portal/internal/web"
	detectorCtrl "github.com/Laisky/diagnostics-portal/internal/web/detectors/controller"
	detectorSvc "github.com/Laisky/diagnostics-portal/internal/web/detectors/service"
	"github.com/Laisky/diagnostics-portal/library/log"
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `HTTP API for the detector registry and web search`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := runAPI(ctx); err != nil {
			log.Logger.Panic("run api", zap.Error(err))
		}
	},
}

func runAPI(ctx context.Context) error {
	logger := log.Logger.Named("api")

	redisDB := newRedisDB()
	if redisDB != nil {
		defer func() {
			if err := redisDB.Close(); err != nil {
				logger.Warn("close redis", zap.Error(err))
			}
		}()
	}

	wsController, err := newWebsearchController(logger, redisDB)
	if err != nil {
		return errors.Wrap(err, "setup websearch")
	}

	registry := detectorSvc.NewRegistry(detectorSvc.WithLogger(logger.Named("detector_registry")))
	source, closeSource, err := newCategorySource(ctx, logger)
	if err != nil {
		return errors.Wrap(err, "setup category source")
	}
	defer func() {
		if err := closeSource(context.Background()); err != nil {
			logger.Warn("close category source", zap.Error(err))
		}
	}()

	go func() {
		if err := registry.Watch(ctx, source); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("watch detector categories", zap.Error(err))
		}
	}()

	dController, err := detectorCtrl.New(registry)
	if err != nil {
		return errors.Wrap(err, "new detectors controller")
	}

	opt := web.ServerOptions{
		Logger:       logger,
		AllowedHosts: gconfig.Shared.GetStringSlice("settings.web.cors_allowed_hosts"),
		Debug:        gconfig.Shared.GetBool("debug"),
		Controllers:  []web.RouteRegistrar{wsController, dController},
	}

	if gconfig.Shared.GetBool("settings.mcp.enabled") {
		searchTool, err := mcpTools.NewWebSearchTool(wsController, logger.Named("mcp_web_search"))
		if err != nil {
			return errors.Wrap(err, "new web_search tool")
		}
		menuTool, err := mcpTools.NewDetectorMenuTool(registry, logger.Named("mcp_detector_menu"))
		if err != nil {
			return errors.Wrap(err, "new detector_menu tool")
		}

		server, err := mcpServer.NewServer(logger, searchTool, menuTool)
		if err != nil {
			return errors.Wrap(err, "new mcp server")
		}
		opt.MCP = server.Handler()
	}

	router, err := web.NewRouter(opt)
	if err != nil {
		return errors.Wrap(err, "new router")
	}

	return web.RunServer(ctx, logger, gconfig.Shared.GetString("listen"), router)
}

func init() {
	rootCMD.AddCommand(apiCMD)
}
