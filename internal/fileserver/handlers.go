package fileserver

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/filegate/pkg/apperr"
	"github.com/nao1215/filegate/pkg/event"
	"github.com/nao1215/filegate/pkg/middleware"
)

// handleRoot はサービス情報と利用可能なエンドポイントを返す。
func (s *Server) handleRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":   "File Server API - Identity Provider Auth is running",
			"version":   Version,
			"auth":      "Bearer token verified by identity provider",
			"tenant_id": s.cfg.TenantID,
			"client_id": s.cfg.ClientID,
			"endpoints": gin.H{
				"me":         "/me",
				"list_files": "/files/",
				"get_file":   "/file/{file_path}",
				"download":   "/download/{file_path}",
			},
		})
	}
}

// handleHealth はヘルスチェック結果を返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// handleGetCurrentUser は認証済みユーザーの情報を返す。
func (s *Server) handleGetCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := middleware.GetIdentity(c)
		if id == nil {
			middleware.AbortWithError(c, apperr.New(apperr.KindUnauthenticated, "認証が必要です"))
			return
		}

		event.Emit(c.Request.Context(), s.events, event.TypeProfileViewed, id.SubjectID, "", nil)
		c.JSON(http.StatusOK, gin.H{
			"user":    id,
			"message": "ユーザーは正常に認証されました",
		})
	}
}

// handleGetFile はファイルの内容をインライン表示用に返す。
func (s *Server) handleGetFile() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.serveFile(c, dispositionInline, event.TypeFileRead)
	}
}

// handleDownloadFile はファイルの内容を添付ファイルとして返す。
func (s *Server) handleDownloadFile() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.serveFile(c, dispositionAttachment, event.TypeFileDownloaded)
	}
}

// handleListFiles はディレクトリ直下のエントリ一覧を返す。
// directoryクエリが空の場合は基準ディレクトリを対象とする。
func (s *Server) handleListFiles() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := middleware.GetIdentity(c)
		if id == nil {
			middleware.AbortWithError(c, apperr.New(apperr.KindUnauthenticated, "認証が必要です"))
			return
		}

		directory := c.Query("directory")
		entries, err := s.resolver.List(ctx, directory)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}

		event.Emit(ctx, s.events, event.TypeDirectoryListed, id.SubjectID, directory,
			event.DirectoryListedData{TotalItems: len(entries)})
		c.JSON(http.StatusOK, gin.H{
			"files":       entries,
			"directory":   directory,
			"total_items": len(entries),
			"user":        id.DisplayName,
		})
	}
}

// serveFile はパスパラメータのファイルを解決してレスポンスに書き込む。
// Range指定や条件付きリクエストはhttp.ServeContentが処理する。
func (s *Server) serveFile(c *gin.Context, disposition string, eventType event.Type) {
	ctx := c.Request.Context()
	id := middleware.GetIdentity(c)
	if id == nil {
		middleware.AbortWithError(c, apperr.New(apperr.KindUnauthenticated, "認証が必要です"))
		return
	}

	rel := strings.TrimPrefix(c.Param("path"), "/")
	target, err := s.resolver.ResolveFile(ctx, rel)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	f, err := os.Open(target.Path)
	if err != nil {
		middleware.AbortWithError(c, openError(err))
		return
	}
	defer f.Close()

	contentType, err := detectContentType(target.Path, f)
	if err != nil {
		middleware.AbortWithError(c, apperr.Wrap(apperr.KindInternal, "ファイルの読み込みに失敗しました", err))
		return
	}

	name := path.Base(target.Rel)
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", contentDisposition(disposition, name))

	event.Emit(ctx, s.events, eventType, id.SubjectID, target.Rel,
		event.FileData{Size: target.Info.Size(), ContentType: contentType})
	http.ServeContent(c.Writer, c.Request, name, target.Info.ModTime(), f)
}

// openError は解決後のファイルオープン失敗をエラー種別に変換する。
func openError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return apperr.Wrap(apperr.KindNotFound, "ファイルが見つかりません", err)
	case errors.Is(err, fs.ErrPermission):
		return apperr.Wrap(apperr.KindAccessDenied, "ファイルへのアクセス権限がありません", err)
	default:
		slog.Error("ファイルのオープンに失敗", "error", err)
		return apperr.Wrap(apperr.KindInternal, "ファイルの読み込みに失敗しました", err)
	}
}
