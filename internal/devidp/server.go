package devidp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	_ "modernc.org/sqlite"

	"github.com/nao1215/filegate/pkg/middleware"
)

// 開発用ユーザーの既定値。
const (
	defaultPrincipalName = "dev@localhost"
	defaultDisplayName   = "開発ユーザー"
)

// Server は開発用IDプロバイダーのHTTPサーバー。
type Server struct {
	router   *gin.Engine
	port     string
	db       *sql.DB
	store    *Store
	secret   string
	tokenTTL time.Duration
}

// NewServer は設定に従ってSQLiteを開き、サーバーを生成する。
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	s, err := newServer(ctx, db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newServer(ctx context.Context, db *sql.DB, cfg Config) (*Server, error) {
	store, err := NewStore(ctx, db)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(sloggin.New(slog.Default().WithGroup("http")))

	s := &Server{
		router:   router,
		port:     cfg.Port,
		db:       db,
		store:    store,
		secret:   cfg.Secret,
		tokenTTL: cfg.TokenTTL,
	}
	s.setupRoutes()
	return s, nil
}

// Handler はサーバーのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close はデータベース接続を閉じる。
func (s *Server) Close() error {
	return s.db.Close()
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされたらシャットダウンする。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.POST("/token", s.handleIssueToken())
	s.router.GET("/v1.0/me", s.handleMe())
}

// tokenRequest はトークン発行リクエスト。省略したフィールドは開発用ユーザーの既定値になる。
type tokenRequest struct {
	UserPrincipalName string `json:"user_principal_name"`
	DisplayName       string `json:"display_name"`
	GivenName         string `json:"given_name"`
	Surname           string `json:"surname"`
	JobTitle          string `json:"job_title"`
	OfficeLocation    string `json:"office_location"`
}

// handleIssueToken は開発用ユーザーを作成（または再利用）してトークンを発行する。
func (s *Server) handleIssueToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストボディが不正です"})
				return
			}
		}
		if req.UserPrincipalName == "" {
			req.UserPrincipalName = defaultPrincipalName
		}
		if req.DisplayName == "" {
			req.DisplayName = defaultDisplayName
		}

		user, err := s.store.UpsertUser(c.Request.Context(), User{
			UserPrincipalName: req.UserPrincipalName,
			DisplayName:       req.DisplayName,
			GivenName:         req.GivenName,
			Surname:           req.Surname,
			JobTitle:          req.JobTitle,
			OfficeLocation:    req.OfficeLocation,
		})
		if err != nil {
			slog.Error("開発ユーザーの登録に失敗", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー作成に失敗しました"})
			return
		}

		token, err := GenerateToken(s.secret, user, s.tokenTTL)
		if err != nil {
			slog.Error("トークン生成に失敗", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークン生成に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(s.tokenTTL.Seconds()),
			"user_id":      user.ID,
		})
	}
}

// handleMe はトークンの持ち主をGraph APIと同じ形式で返す。
func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := middleware.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			graphError(c, http.StatusUnauthorized, "InvalidAuthenticationToken", "Access token is empty.")
			return
		}
		claims, err := ParseToken(s.secret, token)
		if err != nil {
			graphError(c, http.StatusUnauthorized, "InvalidAuthenticationToken", "Access token has expired or is not yet valid.")
			return
		}

		user, err := s.store.GetUser(c.Request.Context(), claims.Subject)
		if errors.Is(err, ErrUserNotFound) {
			graphError(c, http.StatusUnauthorized, "InvalidAuthenticationToken", "User does not exist.")
			return
		}
		if err != nil {
			slog.Error("ユーザー取得に失敗", "error", err)
			graphError(c, http.StatusInternalServerError, "generalException", "An unexpected error occurred.")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":                user.ID,
			"displayName":       user.DisplayName,
			"userPrincipalName": user.UserPrincipalName,
			"mail":              user.UserPrincipalName,
			"givenName":         user.GivenName,
			"surname":           user.Surname,
			"jobTitle":          user.JobTitle,
			"officeLocation":    user.OfficeLocation,
		})
	}
}

// graphError はGraph APIと同じ形式のエラーレスポンスを返す。
func graphError(c *gin.Context, status int, code, message string) {
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
