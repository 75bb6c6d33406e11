package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/nao1215/filegate/pkg/apperr"
)

// tracerName はトレーサーの計装スコープ名。
const tracerName = "github.com/nao1215/filegate/pkg/sandbox"

// want は解決対象に期待するパスの種類。
type want int

const (
	wantAny want = iota
	wantFile
	wantDir
)

// Target は解決済みのパス。
type Target struct {
	// Path は正規化済みの絶対パス。
	Path string
	// Rel は基準ディレクトリからの相対パス（スラッシュ区切り）。基準ディレクトリ自身は空文字列。
	Rel string
	// Info は解決時点のファイル情報。
	Info fs.FileInfo
}

// Resolver は基準ディレクトリ配下のパスを解決する。
// 生成後は不変であり、複数のゴルーチンから同時に使用できる。
type Resolver struct {
	// base は正規化済みの基準ディレクトリ。
	base string
	// prefix は基準ディレクトリにパス区切り文字を付与したもの。
	prefix string
}

// NewResolver は基準ディレクトリを正規化してResolverを生成する。
// 基準ディレクトリが存在しない場合やディレクトリでない場合はエラーを返す。
func NewResolver(baseDir string) (*Resolver, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("基準ディレクトリの絶対パス化に失敗: %w", err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("基準ディレクトリの正規化に失敗: %w", err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("基準ディレクトリの参照に失敗: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("基準ディレクトリがディレクトリではありません: %s", canonical)
	}

	prefix := canonical
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return &Resolver{base: canonical, prefix: prefix}, nil
}

// Base は正規化済みの基準ディレクトリを返す。
func (r *Resolver) Base() string {
	return r.base
}

// Resolve は種類を問わずパスを解決する。
func (r *Resolver) Resolve(ctx context.Context, rel string) (*Target, error) {
	return r.resolve(ctx, rel, wantAny)
}

// ResolveFile はファイルを指すパスを解決する。ディレクトリの場合はInvalidTypeを返す。
func (r *Resolver) ResolveFile(ctx context.Context, rel string) (*Target, error) {
	return r.resolve(ctx, rel, wantFile)
}

// ResolveDir はディレクトリを指すパスを解決する。ファイルの場合はInvalidTypeを返す。
func (r *Resolver) ResolveDir(ctx context.Context, rel string) (*Target, error) {
	return r.resolve(ctx, rel, wantDir)
}

// contains は正規化済みのパスが基準ディレクトリ配下にあるかを判定する。
// "/base2" が "/base" に一致しないよう区切り文字を含めて比較する。
func (r *Resolver) contains(p string) bool {
	return p == r.base || strings.HasPrefix(p, r.prefix)
}

func (r *Resolver) resolve(ctx context.Context, rel string, w want) (*Target, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "sandbox.resolve")
	defer span.End()

	target, err := r.lookup(rel, w)
	if err != nil {
		span.SetStatus(codes.Error, apperr.KindOf(err).String())
		return nil, err
	}
	span.SetAttributes(attribute.Bool("sandbox.is_dir", target.Info.IsDir()))
	return target, nil
}

func (r *Resolver) lookup(rel string, w want) (*Target, error) {
	// ホストに関係なくバックスラッシュも区切り文字として扱う
	normalized := filepath.FromSlash(strings.ReplaceAll(rel, `\`, "/"))
	candidate := filepath.Join(r.base, normalized)
	if !r.contains(candidate) {
		return nil, apperr.New(apperr.KindAccessDenied, "アクセスが拒否されました: 許可されたディレクトリの外です")
	}

	canonical, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return nil, statError(err, w)
	}
	if !r.contains(canonical) {
		return nil, apperr.New(apperr.KindAccessDenied, "アクセスが拒否されました: 許可されたディレクトリの外です")
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return nil, statError(err, w)
	}
	switch {
	case w == wantFile && info.IsDir():
		return nil, apperr.New(apperr.KindInvalidType, "パスがファイルではありません")
	case w == wantDir && !info.IsDir():
		return nil, apperr.New(apperr.KindInvalidType, "パスがディレクトリではありません")
	}

	relPath, err := filepath.Rel(r.base, candidate)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "パスの解決に失敗しました", err)
	}
	relPath = filepath.ToSlash(relPath)
	if relPath == "." {
		relPath = ""
	}
	return &Target{Path: canonical, Rel: relPath, Info: info}, nil
}

// statError はファイルシステムのエラーを分類する。
func statError(err error, w want) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return apperr.Wrap(apperr.KindNotFound, notFoundMessage(w), err)
	case errors.Is(err, fs.ErrPermission):
		return apperr.Wrap(apperr.KindAccessDenied, "アクセスが拒否されました", err)
	default:
		return apperr.Wrap(apperr.KindInternal, "パスの解決に失敗しました", err)
	}
}

func notFoundMessage(w want) string {
	switch w {
	case wantFile:
		return "ファイルが見つかりません"
	case wantDir:
		return "ディレクトリが見つかりません"
	default:
		return "パスが見つかりません"
	}
}
