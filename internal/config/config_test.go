package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

// requiredEnv は必須項目を全て含むテスト用の環境変数。
func requiredEnv() map[string]string {
	return map[string]string{
		"IDENTITY_API_KEY":     "api-key",
		"IDENTITY_SECRET_KEY":  "secret-key",
		"IDENTITY_INSTANCE_ID": "instance-id",
	}
}

// TestParse はParse関数を検証する。
func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("必須項目だけの場合はデフォルト値が使われること", func(t *testing.T) {
		t.Parallel()

		cfg, err := Parse(env.Options{Environment: requiredEnv()})
		if err != nil {
			t.Fatalf("Parse()でエラーが発生: %v", err)
		}
		if cfg.Port != "2500" {
			t.Errorf("Port = %q, want %q", cfg.Port, "2500")
		}
		if cfg.Environment != EnvironmentDevelopment {
			t.Errorf("Environment = %q, want %q", cfg.Environment, EnvironmentDevelopment)
		}
		if cfg.BaseURL != "http://localhost:3111" {
			t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "http://localhost:3111")
		}
		if cfg.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
		}
		if cfg.AppID != 0 {
			t.Errorf("AppID = %d, want 0", cfg.AppID)
		}
		if cfg.AuditDSN != "/data/authgate.db" {
			t.Errorf("AuditDSN = %q, want %q", cfg.AuditDSN, "/data/authgate.db")
		}
		if d := cfg.Device(); d.Name != "Unknown" || d.OS != "Windows 11" {
			t.Errorf("Device() = %+v, want {Unknown Windows 11}", d)
		}
	})

	t.Run("全項目を指定した場合に反映されること", func(t *testing.T) {
		t.Parallel()

		vars := requiredEnv()
		vars["PORT"] = "8080"
		vars["ENV"] = "production"
		vars["IDENTITY_BASE_URL"] = "https://id.example.com"
		vars["IDENTITY_APP_ID"] = "12"
		vars["IDENTITY_TIMEOUT"] = "5s"
		vars["DEVICE_NAME"] = "Kiosk"
		vars["DEVICE_OS"] = "Linux"
		vars["AUDIT_DB_PATH"] = ":memory:"

		cfg, err := Parse(env.Options{Environment: vars})
		if err != nil {
			t.Fatalf("Parse()でエラーが発生: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("Port = %q, want %q", cfg.Port, "8080")
		}
		if cfg.Environment != EnvironmentProduction {
			t.Errorf("Environment = %q, want %q", cfg.Environment, EnvironmentProduction)
		}
		if cfg.BaseURL != "https://id.example.com" {
			t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "https://id.example.com")
		}
		if cfg.AppID != 12 {
			t.Errorf("AppID = %d, want 12", cfg.AppID)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
		}
		if d := cfg.Device(); d.Name != "Kiosk" || d.OS != "Linux" {
			t.Errorf("Device() = %+v, want {Kiosk Linux}", d)
		}
		creds := cfg.Credentials()
		if creds.APIKey != "api-key" || creds.SecretKey != "secret-key" || creds.InstanceID != "instance-id" {
			t.Errorf("Credentials() = %+v", creds)
		}
	})

	t.Run("未知の環境名はdevelopmentとして扱われること", func(t *testing.T) {
		t.Parallel()

		vars := requiredEnv()
		vars["ENV"] = "staging"
		cfg, err := Parse(env.Options{Environment: vars})
		if err != nil {
			t.Fatalf("Parse()でエラーが発生: %v", err)
		}
		if cfg.Environment != EnvironmentDevelopment {
			t.Errorf("Environment = %q, want %q", cfg.Environment, EnvironmentDevelopment)
		}
	})

	t.Run("必須項目が欠けている場合は欠けた変数名を全て含むエラーが返ること", func(t *testing.T) {
		t.Parallel()

		_, err := Parse(env.Options{Environment: map[string]string{"IDENTITY_API_KEY": "k"}})
		if !errors.Is(err, ErrMissingVariables) {
			t.Fatalf("err = %v, want %v", err, ErrMissingVariables)
		}
		for _, name := range []string{"IDENTITY_SECRET_KEY", "IDENTITY_INSTANCE_ID"} {
			if !strings.Contains(err.Error(), name) {
				t.Errorf("エラーメッセージに %s が含まれていない: %v", name, err)
			}
		}
		if strings.Contains(err.Error(), "IDENTITY_API_KEY") {
			t.Errorf("設定済みのIDENTITY_API_KEYがエラーメッセージに含まれている: %v", err)
		}
	})

	t.Run("本番環境ではIDENTITY_BASE_URLが必須であること", func(t *testing.T) {
		t.Parallel()

		vars := requiredEnv()
		vars["ENV"] = "production"
		_, err := Parse(env.Options{Environment: vars})
		if !errors.Is(err, ErrMissingVariables) {
			t.Fatalf("err = %v, want %v", err, ErrMissingVariables)
		}
		if !strings.Contains(err.Error(), "IDENTITY_BASE_URL") {
			t.Errorf("エラーメッセージにIDENTITY_BASE_URLが含まれていない: %v", err)
		}
	})

	t.Run("数値として不正なIDENTITY_APP_IDはエラーになること", func(t *testing.T) {
		t.Parallel()

		vars := requiredEnv()
		vars["IDENTITY_APP_ID"] = "abc"
		if _, err := Parse(env.Options{Environment: vars}); err == nil {
			t.Fatal("Parse()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("負のIDENTITY_APP_IDはエラーになること", func(t *testing.T) {
		t.Parallel()

		vars := requiredEnv()
		vars["IDENTITY_APP_ID"] = "-1"
		if _, err := Parse(env.Options{Environment: vars}); err == nil {
			t.Fatal("Parse()がエラーを返すべきだが、nilが返った")
		}
	})
}

// clearEnv はテスト終了時に元の値へ戻るようにしたうえで環境変数を未設定にする。
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()

	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

// TestLoad は.envファイルからの読み込みを検証する。
// プロセスの環境変数を書き換えるため並列実行しない。
func TestLoad(t *testing.T) {
	t.Run(".envファイルの値が読み込まれること", func(t *testing.T) {
		clearEnv(t, "ENV", "IDENTITY_BASE_URL", "IDENTITY_API_KEY", "IDENTITY_SECRET_KEY", "IDENTITY_INSTANCE_ID", "IDENTITY_APP_ID")

		path := filepath.Join(t.TempDir(), ".env")
		content := "IDENTITY_API_KEY=file-key\nIDENTITY_SECRET_KEY=file-secret\nIDENTITY_INSTANCE_ID=file-instance\nIDENTITY_APP_ID=5\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf(".envファイルの作成に失敗: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if cfg.APIKey != "file-key" {
			t.Errorf("APIKey = %q, want %q", cfg.APIKey, "file-key")
		}
		if cfg.AppID != 5 {
			t.Errorf("AppID = %d, want 5", cfg.AppID)
		}
	})

	t.Run("既に設定されている環境変数は.envで上書きされないこと", func(t *testing.T) {
		clearEnv(t, "ENV", "IDENTITY_BASE_URL", "IDENTITY_SECRET_KEY", "IDENTITY_INSTANCE_ID")
		t.Setenv("IDENTITY_API_KEY", "process-key")

		path := filepath.Join(t.TempDir(), ".env")
		content := "IDENTITY_API_KEY=file-key\nIDENTITY_SECRET_KEY=file-secret\nIDENTITY_INSTANCE_ID=file-instance\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf(".envファイルの作成に失敗: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if cfg.APIKey != "process-key" {
			t.Errorf("APIKey = %q, want %q", cfg.APIKey, "process-key")
		}
	})

	t.Run(".envファイルが存在しなくてもエラーにならないこと", func(t *testing.T) {
		t.Setenv("IDENTITY_API_KEY", "k")
		t.Setenv("IDENTITY_SECRET_KEY", "s")
		t.Setenv("IDENTITY_INSTANCE_ID", "i")
		t.Setenv("ENV", "development")
		t.Setenv("IDENTITY_APP_ID", "0")

		if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
	})
}
