package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/filegate/pkg/apperr"
)

// Entry はディレクトリ一覧の1要素。列挙時点のメタデータのスナップショット。
type Entry struct {
	// Name はエントリ名。
	Name string `json:"name"`
	// IsDirectory はディレクトリであればtrue。
	IsDirectory bool `json:"is_directory"`
	// Size はファイルサイズ（バイト）。ディレクトリの場合はnil。
	Size *int64 `json:"size"`
	// Path は基準ディレクトリからの相対パス（スラッシュ区切り）。
	Path string `json:"path"`
	// ModifiedTime は最終更新日時。
	ModifiedTime time.Time `json:"modified_time"`
	// Permissions はパーミッションの8進数表記（例: "644"）。
	Permissions string `json:"permissions"`
}

// List はディレクトリ直下のエントリを列挙する。
// 結果はディレクトリが先、同種の中では名前の大文字小文字を区別しない昇順に並ぶ。
func (r *Resolver) List(ctx context.Context, rel string) ([]Entry, error) {
	target, err := r.ResolveDir(ctx, rel)
	if err != nil {
		return nil, err
	}

	dirents, err := os.ReadDir(target.Path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, apperr.Wrap(apperr.KindAccessDenied, "ディレクトリへのアクセス権限がありません", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "ファイル一覧の取得に失敗しました", err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		info, err := r.entryInfo(filepath.Join(target.Path, d.Name()))
		if errors.Is(err, fs.ErrNotExist) {
			// 列挙後に削除されたエントリは含めない
			continue
		}
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil, apperr.Wrap(apperr.KindAccessDenied, "ディレクトリへのアクセス権限がありません", err)
			}
			return nil, apperr.Wrap(apperr.KindInternal, "ファイル一覧の取得に失敗しました", err)
		}

		entry := Entry{
			Name:         d.Name(),
			IsDirectory:  info.IsDir(),
			Path:         path.Join(target.Rel, d.Name()),
			ModifiedTime: info.ModTime(),
			Permissions:  fmt.Sprintf("%03o", info.Mode().Perm()),
		}
		if !info.IsDir() {
			size := info.Size()
			entry.Size = &size
		}
		entries = append(entries, entry)
	}

	SortEntries(entries)
	return entries, nil
}

// entryInfo はエントリのファイル情報を取得する。
// シンボリックリンクはリンク先が基準ディレクトリ配下の場合のみ辿り、
// それ以外はリンク自身の情報を返す。
func (r *Resolver) entryInfo(p string) (fs.FileInfo, error) {
	info, err := os.Lstat(p)
	if err != nil {
		return nil, err
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return info, nil
	}

	resolved, err := filepath.EvalSymlinks(p)
	if err != nil || !r.contains(resolved) {
		return info, nil
	}
	target, err := os.Stat(resolved)
	if err != nil {
		return info, nil
	}
	return target, nil
}

// SortEntries はディレクトリを先に、名前の大文字小文字を区別しない昇順に並べ替える。
// 大文字小文字のみ異なる名前は元の名前で順序を決める。
func SortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if a.IsDirectory != b.IsDirectory {
			if a.IsDirectory {
				return -1
			}
			return 1
		}
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}
