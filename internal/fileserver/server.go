package fileserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/nao1215/filegate/internal/config"
	"github.com/nao1215/filegate/pkg/event"
	"github.com/nao1215/filegate/pkg/identity"
	"github.com/nao1215/filegate/pkg/metrics"
	"github.com/nao1215/filegate/pkg/middleware"
	"github.com/nao1215/filegate/pkg/sandbox"
)

// Version はサービスのバージョン。ビルド時に -ldflags で上書きできる。
var Version = "1.0.0"

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 10 * time.Second

// Server はファイル配信ゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg は起動時に読み込んだ不変の設定。
	cfg config.Config
	// resolver は基準ディレクトリ配下のパス解決を行う。
	resolver *sandbox.Resolver
	// verifier はBearerトークンの検証を行う。
	verifier identity.Verifier
	// events はアクセスイベントの記録先。
	events event.Recorder
	// metrics はPrometheusメトリクス。MetricsEnabledがfalseの場合はnil。
	metrics *metrics.Metrics
}

// NewServer は設定からサーバーを生成する。
// トークン検証には設定されたエンドポイントを呼び出すGraphVerifierを使用する。
func NewServer(cfg config.Config) (*Server, error) {
	verifier := identity.NewGraphVerifier(cfg.IdentityEndpoint, cfg.IdentityTimeout)
	return newServer(cfg, verifier, event.NewLogRecorder(nil))
}

func newServer(cfg config.Config, verifier identity.Verifier, events event.Recorder) (*Server, error) {
	resolver, err := sandbox.NewResolver(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("基準ディレクトリの初期化に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(sloggin.NewWithConfig(slog.Default().WithGroup("http"), sloggin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	s := &Server{
		router:   router,
		cfg:      cfg,
		resolver: resolver,
		verifier: verifier,
		events:   events,
	}
	if cfg.MetricsEnabled {
		s.metrics = metrics.New()
		router.Use(s.metrics.Middleware())
		s.verifier = s.metrics.InstrumentVerifier(verifier)
	}
	s.setupRoutes()

	return s, nil
}

// Handler はサーバーのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// BaseDir は正規化済みの基準ディレクトリを返す。
func (s *Server) BaseDir() string {
	return s.resolver.Base()
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるまで処理を続ける。
// キャンセル後は処理中のリクエストの完了を待ってから終了する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("グレースフルシャットダウンに失敗: %w", err)
		}
		return nil
	}
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// サービス情報とヘルスチェック（認証不要）
	s.router.GET("/", s.handleRoot())
	s.router.GET("/health", s.handleHealth())

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	if s.cfg.PprofEnabled {
		pprof.Register(s.router)
	}

	// 認証必須のエンドポイント
	api := s.router.Group("")
	api.Use(middleware.BearerAuth(s.verifier))
	{
		api.GET("/me", s.handleGetCurrentUser())
		api.GET("/file/*path", s.handleGetFile())
		api.GET("/files", s.handleListFiles())
		api.GET("/files/", s.handleListFiles())
		api.GET("/download/*path", s.handleDownloadFile())
	}
}
