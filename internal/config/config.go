// Package config はゲートウェイの設定を環境変数と設定ファイルから読み込む。
//
// 設定は起動時に一度だけ読み込まれ、以降は変更されない値として各コンポーネントに渡される。
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nao1215/filegate/pkg/identity"
	"github.com/nao1215/filegate/pkg/logging"
)

// 設定キー。環境変数名は "." を "_" に置き換えて大文字にしたもの（例: identity.endpoint -> IDENTITY_ENDPOINT）。
const (
	KeyConfigFile         = "config_file"
	KeyBaseDir            = "base_dir"
	KeyTenantID           = "tenant_id"
	KeyClientID           = "client_id"
	KeyPort               = "port"
	KeyIdentityEndpoint   = "identity.endpoint"
	KeyIdentityTimeout    = "identity.timeout"
	KeyLogLevel           = "log.level"
	KeyLogFormat          = "log.format"
	KeyCORSAllowedOrigins = "cors.allowed_origins"
	KeyMetricsEnabled     = "metrics.enabled"
	KeyPprofEnabled       = "pprof.enabled"
)

// Config はゲートウェイの不変の設定値。
type Config struct {
	// BaseDir は公開する基準ディレクトリ。
	BaseDir string
	// TenantID はIDプロバイダーのテナント識別子。サービス情報として表示する。
	TenantID string
	// ClientID はIDプロバイダーに登録したクライアント識別子。サービス情報として表示する。
	ClientID string
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// IdentityEndpoint はトークン検証に使用するユーザー情報エンドポイント。
	IdentityEndpoint string
	// IdentityTimeout はトークン検証呼び出しのタイムアウト。
	IdentityTimeout time.Duration
	// LogLevel はログレベル。
	LogLevel slog.Level
	// LogFormat はログ形式（"json" または "text"）。
	LogFormat string
	// CORSAllowedOrigins はCORSで許可するオリジン。"*" で全許可。
	CORSAllowedOrigins []string
	// MetricsEnabled は /metrics を公開するかどうか。認証なしで公開されるため既定では無効。
	MetricsEnabled bool
	// PprofEnabled は /debug/pprof を公開するかどうか。
	PprofEnabled bool
}

// NewViper はデフォルト値と環境変数の対応を設定したviperを生成する。
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyBaseDir, "/srv/data")
	v.SetDefault(KeyTenantID, "")
	v.SetDefault(KeyClientID, "")
	v.SetDefault(KeyPort, "8000")
	v.SetDefault(KeyIdentityEndpoint, identity.DefaultEndpoint)
	v.SetDefault(KeyIdentityTimeout, 10*time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyCORSAllowedOrigins, []string{"*"})
	v.SetDefault(KeyMetricsEnabled, false)
	v.SetDefault(KeyPprofEnabled, false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyConfigFile, "FILEGATE_CONFIG")
	return v
}

// Load は環境変数（および指定があれば設定ファイル）から設定を読み込む。
func Load() (Config, error) {
	return LoadFrom(NewViper())
}

// LoadFrom はviperから設定を読み込み、検証する。
func LoadFrom(v *viper.Viper) (Config, error) {
	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
	}

	level, err := logging.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BaseDir:            strings.TrimSpace(v.GetString(KeyBaseDir)),
		TenantID:           v.GetString(KeyTenantID),
		ClientID:           v.GetString(KeyClientID),
		Port:               strings.TrimSpace(v.GetString(KeyPort)),
		IdentityEndpoint:   strings.TrimSpace(v.GetString(KeyIdentityEndpoint)),
		IdentityTimeout:    v.GetDuration(KeyIdentityTimeout),
		LogLevel:           level,
		LogFormat:          strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		CORSAllowedOrigins: splitList(v.GetStringSlice(KeyCORSAllowedOrigins)),
		MetricsEnabled:     v.GetBool(KeyMetricsEnabled),
		PprofEnabled:       v.GetBool(KeyPprofEnabled),
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir must not be empty")
	}
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535: %q", c.Port)
	}
	if c.IdentityEndpoint == "" {
		return fmt.Errorf("identity.endpoint must not be empty")
	}
	if c.IdentityTimeout <= 0 {
		return fmt.Errorf("identity.timeout must be positive: %s", c.IdentityTimeout)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid log format %q: must be json or text", c.LogFormat)
	}
	return nil
}

// LogValue は起動時に出力する実効設定を返す。
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_dir", c.BaseDir),
		slog.String("tenant_id", c.TenantID),
		slog.String("client_id", c.ClientID),
		slog.String("port", c.Port),
		slog.String("identity_endpoint", c.IdentityEndpoint),
		slog.Duration("identity_timeout", c.IdentityTimeout),
		slog.String("log_level", c.LogLevel.String()),
		slog.String("log_format", c.LogFormat),
		slog.Any("cors_allowed_origins", c.CORSAllowedOrigins),
		slog.Bool("metrics_enabled", c.MetricsEnabled),
		slog.Bool("pprof_enabled", c.PprofEnabled),
	)
}

// splitList は環境変数で "a,b" のように指定された値も要素に分割する。
func splitList(values []string) []string {
	var result []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				result = append(result, item)
			}
		}
	}
	return result
}
