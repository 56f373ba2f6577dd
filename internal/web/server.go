// Package web gin server
package web

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// cgnatNet is the carrier-grade NAT range used by the internal overlay network.
var cgnatNet = func() *net.IPNet {
	_, n, _ := net.ParseCIDR("100.64.0.0/10")
	return n
}()

// RouteRegistrar mounts a group of routes.
type RouteRegistrar interface {
	Register(r gin.IRouter)
}

// ServerOptions configures NewRouter.
type ServerOptions struct {
	Logger logSDK.Logger
	// AllowedHosts are the CORS hosts; their subdomains are allowed too.
	AllowedHosts []string
	Debug        bool
	Controllers  []RouteRegistrar
	// MCP is mounted at /mcp when not nil.
	MCP http.Handler
}

// NewRouter builds the gin engine with middlewares, health, metrics and controllers.
func NewRouter(opt ServerOptions) (*gin.Engine, error) {
	if opt.Logger == nil {
		return nil, errors.New("logger is nil")
	}
	if !opt.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	server := gin.New()
	server.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLogger(opt.Logger.Named("gin")),
		),
		newCORSMiddleware(opt.AllowedHosts),
	)

	statusHandler := newStatusHandler()
	server.GET("/health", statusHandler)
	server.HEAD("/health", statusHandler)
	server.OPTIONS("/health", statusHandler)
	server.GET("/metrics", gin.WrapH(promhttp.Handler()))

	for _, ctrl := range opt.Controllers {
		if ctrl != nil {
			ctrl.Register(server)
		}
	}

	if opt.MCP != nil {
		server.Any("/mcp", gin.WrapH(opt.MCP))
	}

	return server, nil
}

// RunServer serves handler on addr until ctx is done, then shuts down gracefully.
func RunServer(ctx context.Context, logger logSDK.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on http", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server exit")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}

	logger.Info("http server stopped")
	return nil
}

// newStatusHandler answers health checks.
func newStatusHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("Allow", "GET, HEAD, OPTIONS")
		if ctx.Request.Method != http.MethodGet {
			ctx.Status(http.StatusOK)
			return
		}

		ctx.String(http.StatusOK, "ok")
	}
}

func newCORSMiddleware(allowedHosts []string) gin.HandlerFunc {
	hosts := make([]string, 0, len(allowedHosts))
	for _, host := range allowedHosts {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			hosts = append(hosts, host)
		}
	}

	return func(ctx *gin.Context) {
		origin := strings.TrimSpace(ctx.Request.Header.Get("Origin"))
		if origin == "" {
			if ctx.Request.Method == http.MethodOptions {
				ctx.Header("Access-Control-Allow-Origin", "*")
				ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
				ctx.Header("Access-Control-Allow-Headers", "*")
				ctx.Header("Access-Control-Max-Age", "86400")
				ctx.AbortWithStatus(http.StatusNoContent)
				return
			}

			ctx.Next()
			return
		}

		if !originAllowed(origin, hosts) {
			// deny preflight from disallowed origins
			if ctx.Request.Method == http.MethodOptions {
				ctx.AbortWithStatus(http.StatusForbidden)
				return
			}

			ctx.Next()
			return
		}

		ctx.Header("Access-Control-Allow-Origin", origin)
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		ctx.Header("Access-Control-Allow-Headers", "*")
		ctx.Header("Access-Control-Max-Age", "86400") // 24 hours
		ctx.Header("Vary", "Origin")

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}

func originAllowed(origin string, hosts []string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" {
		return false
	}

	host := strings.ToLower(strings.TrimSpace(parsed.Hostname()))
	if host == "" {
		return false
	}

	if ip := net.ParseIP(host); ip != nil {
		return cgnatNet.Contains(ip)
	}

	for _, allowed := range hosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}

	return false
}
