package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/authgate/pkg/httpclient"
)

// ErrUnavailable はIDサービスから解釈可能な応答が得られなかった場合のエラー。
// 接続失敗、タイムアウト、想定外のレスポンス形式を含む。
var ErrUnavailable = errors.New("IDサービスから有効な応答が得られません")

const (
	// sessionPath はセッション作成APIのパス。
	sessionPath = "/v1/session"
	// signupPath はユーザー作成APIのパス。
	signupPath = "/v1/signup"
)

// Device はセッションを作成する端末の情報。ゲートウェイでは固定値を使う。
type Device struct {
	// Name は端末名。
	Name string
	// OS は端末のオペレーティングシステム。
	OS string
}

// DefaultDevice はデバイス情報が設定されていない場合に送信する端末情報。
var DefaultDevice = Device{Name: "Unknown", OS: "Windows 11"}

// SessionParams はセッション作成（ログイン）の入力。
type SessionParams struct {
	// Email はログインするユーザーのメールアドレス。
	Email string
	// Password はログインするユーザーのパスワード。
	Password string
	// AppID はログイン先アプリケーションのID。
	AppID int64
	// APIKey はログイン先アプリケーションのAPIキー。
	APIKey string
}

// UserParams はユーザー作成（サインアップ）の入力。
type UserParams struct {
	// FirstName はユーザーの名前。
	FirstName string
	// Email は登録するメールアドレス。
	Email string
	// Password は登録するパスワード。
	Password string
	// AppID は登録先アプリケーションのID。
	AppID int64
	// APIKey は登録先アプリケーションのAPIキー。
	APIKey string
}

// Session はIDサービスが発行したセッション。
type Session struct {
	// AccessToken は呼び出し元アプリケーションに渡すアクセストークン。
	AccessToken string
}

// ProviderError はIDサービスがリクエストを拒否した場合のエラー。
// Codesには報告された順にエラーコードが入る。
type ProviderError struct {
	// Codes はIDサービスが返したエラーコード。
	Codes []string
}

// Error はerrorインターフェースを実装する。
func (e *ProviderError) Error() string {
	return "IDサービスがリクエストを拒否しました: " + strings.Join(e.Codes, ", ")
}

// Has は指定したエラーコードが報告されている場合にtrueを返す。
func (e *ProviderError) Has(code string) bool {
	return slices.Contains(e.Codes, code)
}

// Client はIDサービスのAPIクライアント。
type Client struct {
	// http はIDサービスへのHTTPクライアント。
	http *httpclient.Client
	// creds はアプリケーション資格情報。
	creds Credentials
}

// New は新しいIDサービスクライアントを生成する。
// 資格情報が揃っていない場合でも生成はでき、呼び出し時にErrNotConfiguredを返す。
func New(baseURL string, creds Credentials, opts ...httpclient.Option) *Client {
	return newClient(baseURL, creds, time.Now, opts...)
}

func newClient(baseURL string, creds Credentials, now func() time.Time, opts ...httpclient.Option) *Client {
	opts = append(opts, httpclient.WithRequestHook(creds.authorize(now)))
	return &Client{
		http:  httpclient.New(strings.TrimRight(baseURL, "/"), opts...),
		creds: creds,
	}
}

// sessionRequest はセッション作成APIのリクエストボディ。
type sessionRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	AppID      int64  `json:"app_id"`
	APIKey     string `json:"api_key"`
	DeviceName string `json:"device_name"`
	DeviceOS   string `json:"device_os"`
}

// signupRequest はユーザー作成APIのリクエストボディ。
type signupRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	Password   string `json:"password"`
	AppID      int64  `json:"app_id"`
	APIKey     string `json:"api_key"`
	DeviceName string `json:"device_name"`
	DeviceOS   string `json:"device_os"`
}

// tokenResponse は成功時のレスポンスボディ。
type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// errorResponse は失敗時のレスポンスボディ。
type errorResponse struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// CreateSession はメールアドレスとパスワードでセッションを作成する。
// IDサービスが拒否した場合は*ProviderErrorを返す。
func (c *Client) CreateSession(ctx context.Context, p SessionParams, device Device) (*Session, error) {
	return c.issue(ctx, sessionPath, sessionRequest{
		Email:      p.Email,
		Password:   p.Password,
		AppID:      p.AppID,
		APIKey:     p.APIKey,
		DeviceName: device.Name,
		DeviceOS:   device.OS,
	})
}

// CreateUser は新規ユーザーを作成し、そのユーザーのセッションを返す。
// IDサービスが拒否した場合は*ProviderErrorを返す。
func (c *Client) CreateUser(ctx context.Context, p UserParams, device Device) (*Session, error) {
	return c.issue(ctx, signupPath, signupRequest{
		Email:      p.Email,
		FirstName:  p.FirstName,
		Password:   p.Password,
		AppID:      p.AppID,
		APIKey:     p.APIKey,
		DeviceName: device.Name,
		DeviceOS:   device.OS,
	})
}

// issue はアクセストークンを発行するAPIを呼び出す共通処理。
func (c *Client) issue(ctx context.Context, path string, body any) (*Session, error) {
	if !c.creds.Complete() {
		return nil, ErrNotConfigured
	}

	var resp tokenResponse
	err := c.http.PostJSON(ctx, path, body, &resp)
	if err != nil {
		return nil, classify(err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: アクセストークンが空です", ErrUnavailable)
	}
	return &Session{AccessToken: resp.AccessToken}, nil
}

// classify はHTTPクライアントのエラーをProviderErrorかErrUnavailableに分類する。
func classify(err error) error {
	if errors.Is(err, ErrNotConfigured) {
		return ErrNotConfigured
	}

	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var body errorResponse
	if jsonErr := json.Unmarshal(statusErr.Body, &body); jsonErr != nil || len(body.Errors) == 0 {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	codes := make([]string, 0, len(body.Errors))
	for _, e := range body.Errors {
		if e.Code != "" {
			codes = append(codes, e.Code)
		}
	}
	if len(codes) == 0 {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &ProviderError{Codes: codes}
}
