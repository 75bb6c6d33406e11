// 開発用IDプロバイダーのエントリポイント。
// Graph互換の /v1.0/me と開発用トークンの発行エンドポイントを提供する。
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/filegate/internal/devidp"
	"github.com/nao1215/filegate/pkg/logging"
)

func main() {
	if err := logging.Configure(os.Stderr, slog.LevelInfo, "text"); err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}

	cfg, err := devidp.LoadConfig(devidp.NewViper())
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := devidp.NewServer(ctx, cfg)
	if err != nil {
		log.Fatalf("開発用IDプロバイダーの初期化に失敗: %v", err)
	}
	defer server.Close() //nolint:errcheck

	slog.Info("開発用IDプロバイダーを起動します", "port", cfg.Port, "db", cfg.DBPath)
	if err := server.Run(ctx); err != nil {
		slog.Error("開発用IDプロバイダーが異常終了しました", "error", err)
	}
}
