package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/mockboard/internal/auth"
	"github.com/hitoshi/mockboard/internal/config"
	"github.com/hitoshi/mockboard/internal/handler"
	"github.com/hitoshi/mockboard/internal/logger"
	"github.com/hitoshi/mockboard/internal/metrics"
	"github.com/hitoshi/mockboard/internal/security"
	"github.com/hitoshi/mockboard/internal/seed"
	"github.com/hitoshi/mockboard/internal/store"
	"github.com/hitoshi/mockboard/internal/worker/reset"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ったJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, *slog.Logger, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたレベルでロガーを作り直す
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.SetupDefault(w, level), nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck と reset は起動中のサーバーへのHTTPクライアントのため、フル初期化をスキップする
	switch cmd {
	case CommandHealthcheck:
		return runHealthcheck(localBaseURL())
	case CommandReset:
		return runRemoteReset(localBaseURL())
	}

	cfg, appLogger, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	appLogger.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandCheckSeed:
		return runCheckSeed(cfg, appLogger)
	default:
		return runServe(cfg, appLogger)
	}
}

// Server は依存関係を配線済みのアプリケーション。
type Server struct {
	Store   *store.Store
	Auth    *auth.Service
	Reset   *reset.ResetJob
	Handler http.Handler
}

// Build は設定に従って全依存関係をワイヤリングし、初期データを投入したServerを返す。
func Build(cfg *config.Config, log *slog.Logger) (*Server, error) {
	// 1. 初期データの読み込み
	dataset, err := seed.LoadFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed data: %w", err)
	}

	// 2. ストアとセッションの初期化
	st := store.New(store.Config{})
	tokens := auth.NewService(st, auth.ServiceConfig{})
	job := reset.NewResetJob(st, tokens, dataset, log)

	st.Subscribe(func(ev store.Event) {
		log.Debug("store event",
			slog.String("kind", string(ev.Kind)),
			slog.String("id", ev.ID),
			slog.String("actor_id", ev.ActorID),
		)
	})

	deps := &handler.RouterDeps{
		TokenFinder:       tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Logger:            log,
		AuthService:       tokens,
		Store:             st,
		Sessions:          tokens,
		Resetter:          job,
	}
	if cfg.SanitizeContent {
		deps.Sanitizer = security.NewContentSanitizer()
	}

	// 3. メトリクス
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector := metrics.NewCollector(reg)
		st.Subscribe(metrics.StoreListener(collector, st))
		deps.HTTPMetrics = collector
		deps.MetricsHandler = metrics.Handler(reg)
	}

	// 4. 初期データの投入
	if err := job.Run(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	return &Server{
		Store:   st,
		Auth:    tokens,
		Reset:   job,
		Handler: handler.NewRouter(deps),
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config, log *slog.Logger) error {
	srv, err := Build(cfg, log)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, srv, ln, cfg.ResetInterval, log)
}

// serve はlnでHTTPサーバーを起動し、ctxがキャンセルされるまでブロックする。
// resetIntervalが正の場合は定期リセットをバックグラウンドで実行する。
func serve(ctx context.Context, srv *Server, ln net.Listener, resetInterval time.Duration, log *slog.Logger) error {
	server := &http.Server{
		Handler:      srv.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("API server starting", slog.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	})

	if resetInterval > 0 {
		log.Info("periodic reset enabled", slog.Duration("interval", resetInterval))
		g.Go(func() error {
			srv.Reset.Start(gctx, resetInterval)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("API server stopped gracefully")
	return nil
}

// runCheckSeed は初期データを読み込み、使い捨てのストアに投入して検証する。
func runCheckSeed(cfg *config.Config, log *slog.Logger) error {
	dataset, err := seed.LoadFile(cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("seed check failed: %w", err)
	}
	ents, err := dataset.Build(time.Now())
	if err != nil {
		return fmt.Errorf("seed check failed: %w", err)
	}
	scratch := store.New(store.Config{})
	if err := scratch.Replace(ents.Users, ents.Posts, ents.Comments); err != nil {
		return fmt.Errorf("seed check failed: %w", err)
	}

	counts := scratch.Counts()
	log.Info("seed data is valid",
		slog.String("seed_file", seedSource(cfg.SeedFile)),
		slog.Int("user_count", counts.Users),
		slog.Int("post_count", counts.Posts),
		slog.Int("comment_count", counts.Comments),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /api/health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(baseURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// runRemoteReset は起動中のサーバーの /api/reset を呼び出す。
func runRemoteReset(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Post(baseURL+"/api/reset", "application/json", nil)
	if err != nil {
		return fmt.Errorf("reset request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reset returned status %d", resp.StatusCode)
	}

	return nil
}

// localBaseURL はSERVER_PORTからローカルサーバーのベースURLを組み立てる。
func localBaseURL() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return "http://localhost:" + port
}

func seedSource(path string) string {
	if path == "" {
		return "(embedded)"
	}
	return path
}
