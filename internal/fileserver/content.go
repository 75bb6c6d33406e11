package fileserver

import (
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	dispositionInline     = "inline"
	dispositionAttachment = "attachment"
)

// fallbackContentType は種類を判別できない場合のMIMEタイプ。
const fallbackContentType = "application/octet-stream"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// detectContentType はファイルのMIMEタイプを決定する。
// 拡張子から判別できない場合は先頭バイトを読み取って推定し、読み取り位置を先頭に戻す。
func detectContentType(name string, r io.ReadSeeker) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct, nil
	}

	mt, err := mimetype.DetectReader(r)
	if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("読み取り位置の復元に失敗: %w", seekErr)
	}
	if err != nil || mt == nil {
		return fallbackContentType, nil
	}
	return mt.String(), nil
}

// contentDisposition はContent-Dispositionヘッダーの値を組み立てる。
// ASCII以外を含むファイル名はRFC 6266に従い、ASCIIの代替名とRFC 5987形式の正確な名前を併記する。
func contentDisposition(disposition, filename string) string {
	quoted := disposition + `; filename="` + quoteEscaper.Replace(asciiFallback(filename)) + `"`
	if isASCII(filename) {
		return quoted
	}
	return quoted + `; filename*=UTF-8''` + url.PathEscape(filename)
}

// asciiFallback は表示可能なASCII以外の文字を "_" に置き換える。
func asciiFallback(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '_'
		}
		return r
	}, s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7e || s[i] < 0x20 {
			return false
		}
	}
	return true
}
