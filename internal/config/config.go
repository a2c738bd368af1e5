// Package config はauthgateの起動時設定を読み込む。
//
// 設定は環境変数（と、存在すれば.envファイル）から起動時に一度だけ読み込み、
// 以後は不変の値としてサーバーに注入する。必須項目が欠けている場合は
// リクエストを受け付ける前にエラーとする。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/nao1215/authgate/internal/identity"
)

// ErrMissingVariables は必須の環境変数が設定されていない場合のエラー。
var ErrMissingVariables = errors.New("必須の環境変数が設定されていません")

// Environment はIDサービスの接続先環境。
type Environment string

const (
	// EnvironmentDevelopment は開発用のIDサービスに接続する環境。
	EnvironmentDevelopment Environment = "development"
	// EnvironmentProduction は本番のIDサービスに接続する環境。
	EnvironmentProduction Environment = "production"
)

// developmentBaseURL は開発環境でIDサービスのURLが未指定の場合の接続先。
const developmentBaseURL = "http://localhost:3111"

// Config はauthgateの設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `env:"PORT" envDefault:"2500"`
	// Environment はIDサービスの接続先環境。productionとdevelopment以外はdevelopmentとして扱う。
	Environment Environment `env:"ENV" envDefault:"development"`

	// APIKey はIDサービスが発行したAPIキー。
	APIKey string `env:"IDENTITY_API_KEY"`
	// SecretKey はアプリケーショントークンの署名鍵。
	SecretKey string `env:"IDENTITY_SECRET_KEY"`
	// InstanceID はこのゲートウェイのインスタンス識別子。
	InstanceID string `env:"IDENTITY_INSTANCE_ID"`
	// BaseURL はIDサービスのベースURL。本番環境では必須。
	BaseURL string `env:"IDENTITY_BASE_URL"`
	// AppID はクエリでappIdが指定されない場合に使う固定のアプリケーションID。0は未設定。
	AppID int64 `env:"IDENTITY_APP_ID" envDefault:"0"`
	// Timeout はIDサービス呼び出しのタイムアウト。
	Timeout time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"30s"`

	// DeviceName はセッション作成時に送信する端末名。
	DeviceName string `env:"DEVICE_NAME" envDefault:"Unknown"`
	// DeviceOS はセッション作成時に送信する端末のOS。
	DeviceOS string `env:"DEVICE_OS" envDefault:"Windows 11"`

	// AuditDSN は監査ジャーナル（SQLite）の接続先。
	AuditDSN string `env:"AUDIT_DB_PATH" envDefault:"/data/authgate.db"`
}

// Load は.envファイルと環境変数から設定を読み込み、検証する。
// envFilesを指定しない場合はカレントディレクトリの.envを読む。ファイルが無いことはエラーにしない。
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	return Parse(env.Options{})
}

// Parse は環境変数から設定を読み込み、検証する。
// テストではopts.Environmentに値を渡すことでプロセスの環境変数に依存せずに読み込める。
func Parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("環境変数の解析に失敗: %w", err)
	}
	if cfg.Environment != EnvironmentProduction {
		cfg.Environment = EnvironmentDevelopment
	}
	if cfg.BaseURL == "" && cfg.Environment == EnvironmentDevelopment {
		cfg.BaseURL = developmentBaseURL
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate は必須項目が揃っているかを検証する。
// 欠けている環境変数名は全てエラーメッセージに含める。
func (c *Config) validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "IDENTITY_API_KEY")
	}
	if c.SecretKey == "" {
		missing = append(missing, "IDENTITY_SECRET_KEY")
	}
	if c.InstanceID == "" {
		missing = append(missing, "IDENTITY_INSTANCE_ID")
	}
	if c.BaseURL == "" {
		missing = append(missing, "IDENTITY_BASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingVariables, strings.Join(missing, ", "))
	}
	if c.AppID < 0 {
		return fmt.Errorf("IDENTITY_APP_IDは0以上である必要があります: %d", c.AppID)
	}
	return nil
}

// Credentials はIDサービスのアプリケーション資格情報を返す。
func (c *Config) Credentials() identity.Credentials {
	return identity.Credentials{
		APIKey:     c.APIKey,
		SecretKey:  c.SecretKey,
		InstanceID: c.InstanceID,
	}
}

// Device はセッション作成時に送信する端末情報を返す。
func (c *Config) Device() identity.Device {
	d := identity.Device{Name: c.DeviceName, OS: c.DeviceOS}
	if d.Name == "" {
		d.Name = identity.DefaultDevice.Name
	}
	if d.OS == "" {
		d.OS = identity.DefaultDevice.OS
	}
	return d
}

// loadDotEnv は.envファイルを読み込む。既に設定されている環境変数は上書きしない。
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf(".envファイルの読み込みに失敗 (%s): %w", f, err)
		}
	}
	return nil
}
