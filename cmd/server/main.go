package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/catalogs"
	"github.com/andriy1717/mastercity/internal/sim/lobby"
	"github.com/andriy1717/mastercity/internal/sim/tuning"
	"github.com/andriy1717/mastercity/internal/transport/ws"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	var (
		addr         = flag.String("addr", envString("MC_ADDR", ":8080"), "http listen address")
		configDir    = flag.String("configs", envString("MC_CONFIGS", "./configs"), "config directory")
		dataDir      = flag.String("data", envString("MC_DATA", "./data"), "runtime data directory")
		tuningPath   = flag.String("tuning", envString("MC_TUNING", ""), "path to tuning.yaml (default: <configs>/tuning.yaml)")
		serverConfig = flag.String("server_config", envString("MC_SERVER_CONFIG", ""), "path to server.yaml (default: <configs>/server.yaml)")
		disableDB    = flag.Bool("disable_db", envBool("MC_DISABLE_DB", false), "disable the sqlite audit/game index")
		seed         = flag.Int64("seed", envInt64("MC_SEED", 0), "base room seed (0 seeds from the clock)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	sp := strings.TrimSpace(*serverConfig)
	if sp == "" {
		sp = filepath.Join(*configDir, "server.yaml")
		if _, err := os.Stat(sp); err != nil {
			sp = ""
		}
	}
	cfg, err := lobby.Load(sp)
	if err != nil {
		logger.Fatalf("load server config: %v", err)
	}
	if v, ok := os.LookupEnv("MC_ADMIN_COMMANDS"); ok {
		cfg.AdminCommands = parseBool(v, cfg.AdminCommands)
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}
	sinks, err := openSinks(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	defer sinks.Close()
	if sinks.index != nil {
		if err := sinks.index.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	mgr, err := lobby.NewManager(ctx, lobby.Options{
		Config:   cfg,
		Catalogs: cats,
		Tuning:   &tune,
		Logger:   logger,
		Audit:    sinks,
		Games:    sinks,
		Seed:     *seed,
	})
	if err != nil {
		logger.Fatalf("lobby: %v", err)
	}

	digests := protocol.CatalogDigests{
		BuildingsDigest: cats.Buildings.Digest,
		CivsDigest:      cats.Civs.Digest,
		TuningDigest:    tune.Digest(),
	}
	api := &api{
		mgr:     mgr,
		cats:    cats,
		digests: digests,
		games:   sinks.reader,
		ws:      ws.NewServer(mgr, digests, logger),
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           api.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (tuning %s)", *addr, digests.TuningDigest)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	mgr.Close()
	logger.Printf("shutdown complete")
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	return parseBool(os.Getenv(key), def)
}

func parseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
