package gateway

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/authgate/internal/config"
	"github.com/nao1215/authgate/internal/identity"
	"github.com/nao1215/authgate/pkg/event"
	"github.com/nao1215/authgate/pkg/middleware"
)

//go:embed public
var publicFS embed.FS

// IdentityService はゲートウェイが利用するIDサービスの操作。
// *identity.Clientが実装する。
type IdentityService interface {
	// CreateSession はメールアドレスとパスワードでセッションを作成する。
	CreateSession(ctx context.Context, p identity.SessionParams, device identity.Device) (*identity.Session, error)
	// CreateUser は新規ユーザーを作成し、そのユーザーのセッションを返す。
	CreateUser(ctx context.Context, p identity.UserParams, device identity.Device) (*identity.Session, error)
}

// Recorder は認証試行の記録先。*audit.Storeが実装する。
type Recorder interface {
	// Record はイベントを記録する。
	Record(ctx context.Context, e *event.Event) error
}

// nopRecorder は何も記録しないRecorder。
type nopRecorder struct{}

// Record は何もしない。
func (nopRecorder) Record(context.Context, *event.Event) error { return nil }

// Server はauthgateのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// identity はIDサービスのクライアント。
	identity IdentityService
	// recorder は認証試行の記録先。
	recorder Recorder
	// device はIDサービスに送信する固定の端末情報。
	device identity.Device
	// defaultAppID はクエリにappIdが無い場合に使うアプリケーションID。0は未設定。
	defaultAppID int64
	// loginPage はログインフォームのHTML。
	loginPage []byte
	// signupPage はサインアップフォームのHTML。
	signupPage []byte
	// assets は静的ファイル（public/assets）。
	assets fs.FS
}

// NewServer は新しいゲートウェイサーバーを生成する。
// recorderがnilの場合は認証試行を記録しない。
func NewServer(cfg *config.Config, svc IdentityService, recorder Recorder) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("設定がnilです")
	}
	if svc == nil {
		return nil, errors.New("IDサービスのクライアントがnilです")
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	loginPage, err := fs.ReadFile(publicFS, "public/login.html")
	if err != nil {
		return nil, fmt.Errorf("ログインフォームの読み込みに失敗: %w", err)
	}
	signupPage, err := fs.ReadFile(publicFS, "public/signup.html")
	if err != nil {
		return nil, fmt.Errorf("サインアップフォームの読み込みに失敗: %w", err)
	}
	assets, err := fs.Sub(publicFS, "public/assets")
	if err != nil {
		return nil, fmt.Errorf("静的ファイルの読み込みに失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:       router,
		port:         cfg.Port,
		identity:     svc,
		recorder:     recorder,
		device:       cfg.Device(),
		defaultAppID: cfg.AppID,
		loginPage:    loginPage,
		signupPage:   signupPage,
		assets:       assets,
	}
	s.setupRoutes()

	return s, nil
}

// Handler はサーバーのhttp.Handlerを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はルーティングを設定する。
func (s *Server) setupRoutes() {
	s.router.GET("/login", s.handleForm(s.loginPage))
	s.router.POST("/login", s.handleLogin())
	s.router.GET("/signup", s.handleForm(s.signupPage))
	s.router.POST("/signup", s.handleSignup())
	s.router.GET("/assets/*filepath", s.handleAsset())
	s.router.GET("/", s.handleRoot())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "authgate"})
	})
}
