// Package main is the entry point for the practice timer backend.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/practice-timer-backend/internal/config"
	"github.com/edumarques81/practice-timer-backend/internal/domain/playback"
	"github.com/edumarques81/practice-timer-backend/internal/domain/theme"
	"github.com/edumarques81/practice-timer-backend/internal/infra/portal"
	"github.com/edumarques81/practice-timer-backend/internal/infra/prefs"
	"github.com/edumarques81/practice-timer-backend/internal/transport/socketio"
	"github.com/edumarques81/practice-timer-backend/internal/version"
)

func main() {
	// Command line flags override the config file
	configPath := flag.String("config", config.DefaultPath(), "Path to the TOML config file")
	port := flag.String("port", "", "HTTP server port")
	staticDir := flag.String("static", "", "Directory to serve static files from (optional)")
	storage := flag.String("storage", "", "Preference storage: sqlite, memory or none")
	dbPath := flag.String("db", "", "SQLite preferences database path")
	systemPref := flag.String("system-preference", "", "System color-scheme source: portal, client or static")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "static":
			cfg.Server.StaticDir = *staticDir
		case "storage":
			cfg.Storage.Backend = *storage
		case "db":
			cfg.Storage.Path = *dbPath
		case "system-preference":
			cfg.Theme.SystemPreference = *systemPref
		case "debug":
			cfg.Log.Debug = *debug
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if cfg.Log.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("config", *configPath).
		Str("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Backend).
		Str("system_preference", cfg.Theme.SystemPreference).
		Int("max_external_clients", cfg.Server.MaxExternalClients).
		Msg("Configuration")

	// Preference storage. Failing to open it leaves the theme in memory only.
	var store theme.Storage
	storageName := config.StorageNone
	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		db := prefs.NewDB(cfg.Storage.Path)
		if err := db.Open(); err != nil {
			log.Warn().Err(err).Msg("Preferences database unavailable, theme will not persist")
			break
		}
		defer db.Close()
		if v, err := db.SchemaVersion(); err == nil {
			log.Info().Str("path", db.Path()).Str("schema", v).Msg("Preferences ready")
		}
		store, storageName = db, config.StorageSQLite
	case config.StorageMemory:
		store, storageName = prefs.NewMemory(), config.StorageMemory
	}

	// System color-scheme signal
	var system theme.SystemPreference
	var clientPref *socketio.ClientPreference
	switch cfg.Theme.SystemPreference {
	case config.SystemPortal:
		p, err := portal.New()
		if err != nil {
			log.Warn().Err(err).Msg("Desktop portal unavailable, using static system preference")
			system = theme.StaticPreference{Dark: cfg.Theme.StaticPrefersDark}
			break
		}
		defer p.Close()
		system = p
	case config.SystemClient:
		clientPref = socketio.NewClientPreference()
		system = clientPref
	default:
		system = theme.StaticPreference{Dark: cfg.Theme.StaticPrefersDark}
	}

	indicator := socketio.NewClassIndicator()
	themeController := theme.NewController(theme.Environment{
		Storage:   store,
		System:    system,
		Indicator: indicator,
	})
	tracker := playback.NewTracker()

	socketServer, err := socketio.NewServer(themeController, tracker, socketio.Options{
		Indicator:          indicator,
		SystemPreference:   clientPref,
		MaxExternalClients: cfg.Server.MaxExternalClients,
		AllowedOrigin:      cfg.Server.AllowedOrigin,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Socket.io server")
	}
	defer socketServer.Close()

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", socketServer)

	rest := &api{theme: themeController, tracker: tracker, storage: storageName}
	rest.register(mux)

	// Serve static files if directory specified (SPA mode)
	if cfg.Server.StaticDir != "" {
		dir := cfg.Server.StaticDir
		log.Info().Str("dir", dir).Msg("Serving static files")
		fs := http.FileServer(http.Dir(dir))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
			if info, err := os.Stat(path); err != nil || info.IsDir() {
				// For SPA routing, serve index.html for non-existing paths
				http.ServeFile(w, r, filepath.Join(dir, "index.html"))
				return
			}
			fs.ServeHTTP(w, r)
		})
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      corsMiddleware(cfg.Server.AllowedOrigin, mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	log.Info().Msg("Server stopped")
}
