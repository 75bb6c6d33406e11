// ファイル配信ゲートウェイのエントリポイント。
// Bearerトークンを外部IDプロバイダーで検証し、基準ディレクトリ配下のファイルを読み取り専用で公開する。
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/filegate/internal/config"
	"github.com/nao1215/filegate/internal/fileserver"
	"github.com/nao1215/filegate/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}
	if err := logging.Configure(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}

	server, err := fileserver.NewServer(cfg)
	if err != nil {
		slog.Error("ファイルサーバーの初期化に失敗", "error", err)
		os.Exit(1)
	}

	slog.Info("ファイル配信サービスを起動します",
		"version", fileserver.Version,
		"base_dir", server.BaseDir(),
		"config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		slog.Error("ファイル配信サービスが異常終了しました", "error", err)
		os.Exit(1)
	}
	slog.Info("ファイル配信サービスを停止しました")
}
