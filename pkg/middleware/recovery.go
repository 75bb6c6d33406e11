package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/filegate/pkg/apperr"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック値とスタックトレースをslogに出力し、Internalとして500を返す。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			slog.ErrorContext(c.Request.Context(), "パニックから回復しました",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))

			// 未分類のエラーとして扱い、パニック値はレスポンスに含めない
			err := fmt.Errorf("panic: %v", r)
			c.AbortWithStatusJSON(apperr.KindOf(err).HTTPStatus(), gin.H{"error": apperr.MessageOf(err)})
		}()
		c.Next()
	}
}
