// authgateのエントリポイント。
// ログイン・サインアップのフォームを配信し、外部のIDサービスで認証した結果を
// 呼び出し元アプリケーションへリダイレクトで返す。
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/authgate/internal/audit"
	"github.com/nao1215/authgate/internal/config"
	"github.com/nao1215/authgate/internal/gateway"
	"github.com/nao1215/authgate/internal/identity"
	"github.com/nao1215/authgate/pkg/httpclient"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("authgateの起動に失敗: %v", err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	if cfg.Environment == config.EnvironmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := audit.Open(context.Background(), cfg.AuditDSN)
	if err != nil {
		return fmt.Errorf("監査ジャーナルの初期化に失敗: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("監査ジャーナルのクローズに失敗: %v", err)
		}
	}()

	client := identity.New(cfg.BaseURL, cfg.Credentials(), httpclient.WithTimeout(cfg.Timeout))

	server, err := gateway.NewServer(cfg, client, store)
	if err != nil {
		return fmt.Errorf("サーバーの初期化に失敗: %w", err)
	}

	log.Printf("authgateを起動します: :%s (env=%s, identity=%s)", cfg.Port, cfg.Environment, cfg.BaseURL)
	return server.Run()
}
