package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"jobradar-engine/internal/config"
	"jobradar-engine/internal/events"
	"jobradar-engine/internal/fetch"
	"jobradar-engine/internal/httpapi"
	"jobradar-engine/internal/report"
	"jobradar-engine/internal/run"
	"jobradar-engine/internal/scheduler"
	"jobradar-engine/internal/scrape"
	"jobradar-engine/internal/scrape/sources"
	"jobradar-engine/internal/secrets"
	"jobradar-engine/internal/store"
)

const defaultConfigPath = "config/config.yml"

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yml (default: <data>/config.yml, seeded from config/config.yml)")
		dataDir    = flag.String("data", "", "data directory (default: ./data, or JOBRADAR_DATA)")
		once       = flag.Bool("once", false, "run the pipeline once and exit")
		setSMTPPw  = flag.Bool("set-smtp-password", false, "read an SMTP password from stdin, store it in the OS keychain, and exit")
		delSMTPPw  = flag.Bool("delete-smtp-password", false, "remove the stored SMTP password from the OS keychain and exit")
	)
	flag.Parse()

	// .env is a dev convenience; absence is normal.
	_ = godotenv.Load()

	if err := realMain(*configPath, *dataDir, *once, *setSMTPPw, *delSMTPPw); err != nil {
		log.Fatalf("[boot] %v", err)
	}
}

func realMain(configPath, dataDir string, once, setSMTPPw, delSMTPPw bool) error {
	if dataDir == "" {
		dataDir = os.Getenv("JOBRADAR_DATA")
	}
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	var err error
	if configPath == "" {
		configPath, err = config.EnsureUserConfig(dataDir, defaultConfigPath)
		if err != nil {
			return fmt.Errorf("bootstrap config: %w", err)
		}
	}

	raw, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}
	cfg, vres := config.NormalizeAndValidate(raw)
	for _, w := range vres.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if err := vres.Err(); err != nil {
		return err
	}
	for _, s := range cfg.Sources {
		if !sources.Known(s.ID) {
			return fmt.Errorf("source %q has no parser (known: %v)", s.ID, sources.KnownIDs())
		}
	}
	log.Printf("[config] loaded %s: %d source(s)", configPath, len(cfg.Sources))

	// Keychain management runs before the lock: it touches no shared
	// state, so a running engine shouldn't block it.
	if setSMTPPw || delSMTPPw {
		return manageSMTPPassword(cfg, setSMTPPw)
	}

	// One engine per data dir. A second instance would race the sqlite
	// writer and double-fetch every portal.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	held, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire data dir lock: %w", err)
	}
	if !held {
		return fmt.Errorf("another engine instance already holds %s", lock.Path())
	}
	defer lock.Unlock()

	db, err := store.Open(filepath.Join(dataDir, "jobradar.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	var browser *fetch.BrowserPool
	for _, s := range cfg.Sources {
		if s.Strategy == config.StrategyRendered {
			browser = fetch.NewBrowserPool(context.Background(), cfg.Run.MaxConcurrentSources)
			defer browser.Close()
			break
		}
	}

	client := fetch.New(fetch.Options{
		Timeout:       time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		MaxAttempts:   cfg.Fetch.MaxAttempts,
		HostReqPerSec: cfg.Fetch.HostReqPerSec,
		HostBurst:     cfg.Fetch.HostBurst,
		Browser:       browser,
	})

	hub := events.NewHub()
	coord := &run.Coordinator{
		DB:             db,
		Runner:         &scrape.Orchestrator{Fetcher: client},
		IdentityFields: cfg.Dedup.IdentityFields,
		MaxConcurrent:  cfg.Run.MaxConcurrentSources,
		Hub:            hub,
	}
	mailer := &report.Mailer{Cfg: cfg}

	var status atomic.Value
	status.Store(httpapi.RunStatus{})

	runOnce := func(ctx context.Context) {
		st, _ := status.Load().(httpapi.RunStatus)
		st.Running = true
		st.LastRunAt = time.Now().UTC().Format(time.RFC3339)
		status.Store(st)

		res, err := coord.Once(ctx, cfg.Sources)

		st.Running = false
		if err != nil {
			st.LastError = err.Error()
			status.Store(st)
			log.Printf("[run] aborted: %v", err)
			return
		}
		st.LastError = res.StoreErr
		st.LastOkAt = time.Now().UTC().Format(time.RFC3339)
		st.LastNovel = res.Novel
		st.LastResult = res
		status.Store(st)

		if deleted, err := store.CleanupOldListings(db.Pool, cfg.Run.RetentionDays); err != nil {
			log.Printf("[store] retention cleanup failed: %v", err)
		} else if deleted > 0 {
			log.Printf("[store] retention cleanup removed %d listing(s) older than %d days", deleted, cfg.Run.RetentionDays)
		}

		locs, err := store.LocationAnalysis(ctx, db.Pool)
		if err != nil {
			log.Printf("[store] location analysis failed: %v", err)
		}
		if err := mailer.SendRunSummary(res, locs); err != nil {
			log.Printf("[report] %v", err)
		}
	}

	sched := scheduler.New(runOnce)

	if once {
		sched.TryRun(context.Background())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var every time.Duration
	if cfg.Schedule.DailyAt == "" && cfg.Schedule.Every != "" {
		every, _ = time.ParseDuration(cfg.Schedule.Every) // validated above
	}
	go sched.Start(ctx, every, cfg.Schedule.DailyAt)

	deps := httpapi.Deps{
		DB:     db,
		Hub:    hub,
		Status: &status,
		TriggerRun: func() bool {
			return sched.TryStart(context.Background())
		},
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: httpapi.Chain(httpapi.NewMux(deps), httpapi.Recover, httpapi.AccessLog),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[http] listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Printf("[boot] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return nil
}

// manageSMTPPassword stores or removes the report sender's password in
// the OS keychain, keyed by report.from and report.smtp_host.
func manageSMTPPassword(cfg config.Config, set bool) error {
	if strings.TrimSpace(cfg.Report.From) == "" || strings.TrimSpace(cfg.Report.SMTPHost) == "" {
		return fmt.Errorf("report.from and report.smtp_host must be configured before managing the SMTP password")
	}
	account := secrets.SMTPKeyringAccount(cfg.Report.From, cfg.Report.SMTPHost)

	if !set {
		if err := secrets.DeleteSMTPPassword(account); err != nil {
			return fmt.Errorf("delete SMTP password: %w", err)
		}
		log.Printf("[secrets] SMTP password for %s removed from the keychain", cfg.Report.From)
		return nil
	}

	fmt.Fprint(os.Stderr, "SMTP password: ")
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		return errors.New("no password on stdin")
	}
	if err := secrets.SetSMTPPassword(account, strings.TrimSpace(sc.Text())); err != nil {
		return fmt.Errorf("store SMTP password: %w", err)
	}
	log.Printf("[secrets] SMTP password for %s stored in the keychain", cfg.Report.From)
	return nil
}
