package devidp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 設定キー。環境変数は DEVIDP_ 接頭辞付きの大文字（例: DEVIDP_PORT）。
const (
	KeyPort     = "port"
	KeyDBPath   = "db"
	KeySecret   = "secret"
	KeyTokenTTL = "token_ttl"
)

// Config は開発用IDプロバイダーの設定。
type Config struct {
	// Port は待ち受けポート。
	Port string
	// DBPath はSQLiteデータベースのパス。
	DBPath string
	// Secret はトークン署名用の秘密鍵。
	Secret string
	// TokenTTL は発行するトークンの有効期間。
	TokenTTL time.Duration
}

// NewViper はデフォルト値と環境変数の対応を設定したviperインスタンスを返す。
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyPort, "8090")
	v.SetDefault(KeyDBPath, "devidp.db")
	v.SetDefault(KeySecret, "")
	v.SetDefault(KeyTokenTTL, time.Hour)
	v.SetEnvPrefix("DEVIDP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig はviperから設定を読み込んで検証する。
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:     v.GetString(KeyPort),
		DBPath:   v.GetString(KeyDBPath),
		Secret:   v.GetString(KeySecret),
		TokenTTL: v.GetDuration(KeyTokenTTL),
	}
	if cfg.Secret == "" {
		return Config{}, errors.New("DEVIDP_SECRET が設定されていません")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("token_ttl は正の値である必要があります: %s", cfg.TokenTTL)
	}
	if cfg.DBPath == "" {
		return Config{}, errors.New("db が設定されていません")
	}
	return cfg, nil
}
