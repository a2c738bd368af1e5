package identity

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured はアプリケーション資格情報が揃っていない場合のエラー。
var ErrNotConfigured = errors.New("IDサービスの資格情報が設定されていません")

// appTokenIssuer はアプリケーショントークンの発行者名。
const appTokenIssuer = "authgate"

// appTokenTTL はアプリケーショントークンの有効期間。リクエストごとに発行し直す。
const appTokenTTL = 5 * time.Minute

// Credentials はIDサービスに対してアプリケーションを認証するための資格情報。
type Credentials struct {
	// APIKey はIDサービスが発行したAPIキー。
	APIKey string
	// SecretKey はアプリケーショントークンの署名に使う秘密鍵。
	SecretKey string
	// InstanceID はこのゲートウェイのインスタンス識別子。
	InstanceID string
}

// Complete は全ての項目が設定されている場合にtrueを返す。
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.SecretKey != "" && c.InstanceID != ""
}

// AppClaims はアプリケーショントークンのクレーム。
type AppClaims struct {
	jwt.RegisteredClaims
	// APIKey はIDサービスが発行したAPIキー。
	APIKey string `json:"api_key"`
	// InstanceID はゲートウェイのインスタンス識別子。
	InstanceID string `json:"instance_id"`
}

// SignAppToken は資格情報からHS256署名のアプリケーショントークンを生成する。
func SignAppToken(creds Credentials, now time.Time) (string, error) {
	if !creds.Complete() {
		return "", ErrNotConfigured
	}

	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(appTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    appTokenIssuer,
		},
		APIKey:     creds.APIKey,
		InstanceID: creds.InstanceID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(creds.SecretKey))
	if err != nil {
		return "", fmt.Errorf("アプリケーショントークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ParseAppToken はアプリケーショントークンを検証してクレームを返す。
// IDサービス側の検証ロジックと同じであり、テストやローカルのスタブサーバーで使用する。
func ParseAppToken(tokenString, secretKey string) (*AppClaims, error) {
	claims := &AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(appTokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("アプリケーショントークンの検証に失敗: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("アプリケーショントークンが無効です")
	}
	return claims, nil
}

// authorize はリクエストにアプリケーショントークンをBearerとして付与する。
func (c Credentials) authorize(now func() time.Time) func(*http.Request) error {
	return func(r *http.Request) error {
		token, err := SignAppToken(c, now())
		if err != nil {
			return err
		}
		r.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}
