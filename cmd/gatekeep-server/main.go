package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"io"
	"net"
	"os"
	"time"

	"github.com/yndnr/gatekeep/internal/core/service"
	"github.com/yndnr/gatekeep/internal/infra/buildinfo"
	"github.com/yndnr/gatekeep/internal/infra/confloader"
	"github.com/yndnr/gatekeep/internal/infra/mail"
	"github.com/yndnr/gatekeep/internal/infra/shutdown"
	"github.com/yndnr/gatekeep/internal/infra/tlsroots"
	"github.com/yndnr/gatekeep/internal/server/config"
	"github.com/yndnr/gatekeep/internal/server/httpserver"
	"github.com/yndnr/gatekeep/internal/server/httpserver/handler"
	"github.com/yndnr/gatekeep/internal/storage"
	"github.com/yndnr/gatekeep/internal/telemetry/logger"
	"github.com/yndnr/gatekeep/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.String())
		return nil
	}

	cfg, notes, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, logFile, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting gatekeep-server",
		"version", info.Version,
		"commit", info.ShortCommit(),
		"config", *configFile,
	)
	for _, note := range notes {
		log.Warn("configuration adjusted", "note", note)
	}
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownHandler := shutdown.NewHandler(shutdownTimeout)
	if logFile != nil {
		shutdownHandler.OnShutdown("log file", func(context.Context) error {
			return logFile.Close()
		})
	}

	reg := metric.Global()
	reg.SetBuildInfo(info.Version, info.Commit, info.GoVersion)

	archive, err := initArchive(cfg, log, reg)
	if err != nil {
		return fmt.Errorf("init archive: %w", err)
	}
	if archive != nil {
		shutdownHandler.OnShutdown("archive", func(context.Context) error {
			return archive.Close()
		})
	}

	h, components, err := initHandler(cfg, reg, archive)
	if err != nil {
		return fmt.Errorf("init handler: %w", err)
	}
	reg.Registerer().MustRegister(metric.NewCollector(components))
	for name, c := range components {
		if !c.Configured() {
			log.Warn("component not configured, its endpoints fail closed", "component", name)
		}
	}

	serverCfg := httpserver.Config{
		Addr:         cfg.Server.HTTP.Addr,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}
	if cfg.Server.HTTP.TLSCertFile != "" {
		reloader, err := tlsroots.NewCertReloader(
			cfg.Server.HTTP.TLSCertFile,
			cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(logger.Slog(log)),
		)
		if err != nil {
			return fmt.Errorf("load tls certificate: %w", err)
		}
		serverCfg.TLS = reloader.ServerConfig()
		go func() {
			if err := reloader.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("certificate watcher stopped", "error", err)
			}
		}()
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:            h,
		Metrics:            reg,
		Logger:             log,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		TrustProxy:         cfg.Server.TrustProxy,
	})
	server := httpserver.New(serverCfg, router)

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("configuration reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	shutdownHandler.OnShutdown("http server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		cancel()
		return server.Shutdown(ctx)
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", serverCfg.Addr, "tls", server.TLS())
		if err := server.ListenAndServe(); err != nil {
			serveErr <- err
			shutdownHandler.Trigger()
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads defaults, the optional file, GATEKEEP_ variables and the
// legacy variable names, in increasing precedence except for the legacy
// names, which only fill gaps.
func loadConfig(configFile string) (*config.ServerConfig, []string, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, nil, err
	}

	config.ApplyLegacyEnv(cfg, nil)
	notes := config.Normalize(cfg)

	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, notes, nil
}

// initLogger creates the process logger. With log.file set, output also
// goes to a rotated file, which the caller must close.
func initLogger(cfg *config.ServerConfig) (logger.Logger, io.Closer, error) {
	var (
		out     io.Writer = os.Stderr
		logFile io.WriteCloser
	)
	if cfg.Log.File != "" {
		logFile = logger.NewFileWriter(logger.FileConfig{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		})
		out = io.MultiWriter(os.Stderr, logFile)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: out,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.SetDefault(log)

	if logFile == nil {
		return log, nil, nil
	}
	return log, logFile, nil
}

// initArchive opens the contact archive when enabled.
func initArchive(cfg *config.ServerConfig, log logger.Logger, reg *metric.Registry) (*storage.Archive, error) {
	if !cfg.Storage.ArchiveEnabled {
		return nil, nil
	}
	archiveCfg := storage.DefaultConfig(cfg.Storage.DataDir)
	if cfg.Storage.GCInterval > 0 {
		archiveCfg.GCInterval = cfg.Storage.GCInterval
	}
	archive, err := storage.Open(archiveCfg, logger.Slog(log))
	if err != nil {
		return nil, err
	}
	return archive.RegisterMetrics(reg.Registerer()), nil
}

// initHandler builds the services and the HTTP handler.
func initHandler(cfg *config.ServerConfig, reg *metric.Registry, archive *storage.Archive) (*handler.Handler, map[string]metric.Component, error) {
	nordlys, err := service.NewGateService(cfg.NordlysSurface(), service.WithObserver(reg))
	if err != nil {
		return nil, nil, err
	}
	vault, err := service.NewGateService(cfg.VaultSurface(), service.WithObserver(reg))
	if err != nil {
		return nil, nil, err
	}

	mailer, err := newMailer(&cfg.Contact)
	if err != nil {
		return nil, nil, err
	}
	contactOpts := []service.ContactOption{service.WithContactObserver(reg)}
	if archive != nil {
		contactOpts = append(contactOpts, service.WithArchive(archive))
	}
	contact := service.NewContactService(service.ContactServiceConfig{
		From: cfg.Contact.From,
		To:   cfg.Contact.To,
	}, mailer, contactOpts...)

	var vaultContent template.HTML
	if cfg.Assets.VaultContentFile != "" {
		data, err := os.ReadFile(cfg.Assets.VaultContentFile)
		if err != nil {
			return nil, nil, fmt.Errorf("read vault content: %w", err)
		}
		// The file is operator-provided and trusted.
		vaultContent = template.HTML(data)
	}

	var ready func(context.Context) error
	if archive != nil {
		ready = archive.Ping
	}

	h := handler.New(handler.Config{
		Nordlys:      nordlys,
		Vault:        vault,
		Assets:       service.NewAssetService(cfg.Assets.Dir),
		Contact:      contact,
		VaultContent: vaultContent,
		Ready:        ready,
	})

	components := map[string]metric.Component{
		"nordlys": nordlys,
		"vault":   vault,
		"contact": contact,
	}
	return h, components, nil
}

// newMailer returns nil when the provider lacks credentials, which leaves
// the contact endpoint answering "Server not configured".
func newMailer(cfg *config.ContactSection) (service.Mailer, error) {
	switch cfg.Provider {
	case config.ProviderSMTP:
		tlsConfig, err := tlsroots.ClientConfig(hostOnly(cfg.SMTPHost), caFiles(cfg.SMTPCAFile)...)
		if err != nil {
			return nil, fmt.Errorf("smtp tls: %w", err)
		}
		return mail.NewSMTPMailer(mail.SMTPConfig{
			Host:      cfg.SMTPHost,
			User:      cfg.SMTPUser,
			Password:  cfg.SMTPPassword,
			From:      cfg.From,
			TLSConfig: tlsConfig,
		})
	default:
		if cfg.APIKey == "" {
			return nil, nil
		}
		return mail.NewResendMailer(cfg.APIKey, cfg.APIURL, cfg.Timeout), nil
	}
}

// hostOnly strips the port from host[:port].
func hostOnly(hostport string) string {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	return host
}

func caFiles(file string) []string {
	if file == "" {
		return nil
	}
	return []string{file}
}

// watchConfig re-reads the config file on change and applies log.level.
// Everything else needs a restart.
func watchConfig(path string, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(logger.Slog(log)))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(string) {
		cfg, _, err := loadConfig(path)
		if err != nil {
			log.Warn("ignoring invalid configuration change", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", logger.GetLevel())
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
