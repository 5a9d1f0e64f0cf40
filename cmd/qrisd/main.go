package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"example.com/qrisgate/internal/cache"
	"example.com/qrisgate/internal/common"
	"example.com/qrisgate/internal/locale"
	"example.com/qrisgate/internal/metrics"
	"example.com/qrisgate/internal/qris"
	"example.com/qrisgate/internal/render"
	"example.com/qrisgate/internal/server"
	"example.com/qrisgate/internal/service"
)

const prefix = "QRISGATE"

func main() {
	if err := run(); err != nil {
		log.Fatalf("main: exited with error: %s", err.Error())
	}
}

type config struct {
	Server struct {
		HttpHost        string        `conf:"default:0.0.0.0:3000"`
		MetricsHttpHost string        `conf:"default:0.0.0.0:9999"`
		ReadTimeout     time.Duration `conf:"default:15s"`
		WriteTimeout    time.Duration `conf:"default:30s"`
		ShutdownTimeout time.Duration `conf:"default:10s"`
		BaseURL         string        `conf:"optional"`
	}
	Qris struct {
		Mode             string `conf:"default:static"`
		MerchantManifest string `conf:"optional"`
		QRSize           int    `conf:"default:256"`
		RecoveryLevel    string `conf:"default:medium"`
	}
	Cache struct {
		TTL           time.Duration `conf:"default:5m"`
		SweepInterval time.Duration `conf:"default:1m"`
		Capacity      uint64        `conf:"default:10000"`
	}
	Log struct {
		Directory  string `conf:"optional"`
		MaxSizeMB  int    `conf:"default:25"`
		MaxAgeDays int    `conf:"default:7"`
		MaxBackups int    `conf:"default:5"`
		Compress   bool   `conf:"default:true"`
		Level      string `conf:"default:info"`
	}
	Locale struct {
		Lang string `conf:"default:id"`
	}
	MetricsNamespace string `conf:"default:qrisgate"`
}

func run() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("main: could not load .env: %v", err)
	}

	var cfg config
	if err := conf.Parse(os.Args[1:], prefix, &cfg); err != nil {
		switch {
		case errors.Is(err, conf.ErrHelpWanted):
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return errors.Wrap(err, "generating config usage")
			}
			fmt.Println(usage)
			return nil
		case errors.Is(err, conf.ErrVersionWanted):
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return errors.Wrap(err, "generating config version")
			}
			fmt.Println(version)
			return nil
		}
		return errors.Wrap(err, "parsing config")
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.HttpHost = overridePort(cfg.Server.HttpHost, port)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return errors.Wrap(err, "generating config for output")
	}
	log.Printf("main: Config :\n%v\n", out)

	logger, err := common.NewLogger(common.LogOptions{
		Directory:  cfg.Log.Directory,
		FileName:   "qrisd.log",
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
		Level:      cfg.Log.Level,
	})
	if err != nil {
		return errors.Wrap(err, "creating logger")
	}
	defer logger.Sync()

	mode, err := qris.ParseMode(cfg.Qris.Mode)
	if err != nil {
		return errors.Wrap(err, "qris mode")
	}
	lang, err := locale.ParseLanguage(cfg.Locale.Lang)
	if err != nil {
		return errors.Wrap(err, "locale")
	}
	renderer, err := render.NewQRRenderer(cfg.Qris.QRSize, cfg.Qris.RecoveryLevel)
	if err != nil {
		return errors.Wrap(err, "creating qr renderer")
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer, cfg.MetricsNamespace)
	artifacts := cache.New(cache.Options{
		TTL:           cfg.Cache.TTL,
		SweepInterval: cfg.Cache.SweepInterval,
		Capacity:      cfg.Cache.Capacity,
		OnEvict:       m.IncEviction,
	})

	svc, err := service.New(service.Options{
		Cache:       artifacts,
		Renderer:    renderer,
		DefaultMode: mode,
		TTL:         cfg.Cache.TTL,
		Logger:      logger,
		Metrics:     m,
	})
	if err != nil {
		return errors.Wrap(err, "creating service")
	}
	srv, err := server.NewServer(server.Options{
		Service:          svc,
		MerchantManifest: cfg.Qris.MerchantManifest,
		DefaultLang:      lang,
		BaseURL:          cfg.Server.BaseURL,
		Logger:           logger,
		Metrics:          m,
	})
	if err != nil {
		return errors.Wrap(err, "creating server")
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.HttpHost,
		Handler:      server.NewRouter(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsHttpHost,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infow("starting http server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		logger.Infow("starting metrics server", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "metrics server")
		}
		return nil
	})
	g.Go(func() error {
		stopSweeper := artifacts.StartSweeper(func(removed int) {
			m.SetCacheEntries(artifacts.Len())
			if removed > 0 {
				logger.Debugw("swept expired artifacts", "removed", removed)
			}
		})
		<-gctx.Done()
		stopSweeper()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("http shutdown", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("metrics shutdown", "error", err)
		}
		return nil
	})

	return g.Wait()
}

func overridePort(hostPort, port string) string {
	host, _, err := net.SplitHostPort(hostPort)
	if err != nil {
		host = ""
	}
	return net.JoinHostPort(host, port)
}
