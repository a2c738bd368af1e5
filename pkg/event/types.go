// Package event は認証試行の記録（イベント）を表す型を提供する。
//
// ゲートウェイはログイン・サインアップの結果をイベントとして生成し、
// 監査ジャーナルに追記する。パスワードやアクセストークンは決して含めない。
package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

const (
	// AggregateTypeAccount はメールアドレスで識別されるアカウントを表す。
	AggregateTypeAccount AggregateType = "Account"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeLoginSucceeded はセッション作成に成功したことを表す。
	TypeLoginSucceeded Type = "LoginSucceeded"
	// TypeLoginFailed はIDサービスがセッション作成を拒否したことを表す。
	TypeLoginFailed Type = "LoginFailed"

	// TypeSignupSucceeded はユーザー作成に成功したことを表す。
	TypeSignupSucceeded Type = "SignupSucceeded"
	// TypeSignupFailed はIDサービスがユーザー作成を拒否したことを表す。
	TypeSignupFailed Type = "SignupFailed"
	// TypeSignupRejected はパスワード確認の不一致によりIDサービスを呼ばずに拒否したことを表す。
	TypeSignupRejected Type = "SignupRejected"
)

// Event は監査ジャーナルに追記される不変の記録を表す。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子。アカウントの場合は正規化したメールアドレス。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// AttemptData はログイン・サインアップ試行イベントのデータ。
type AttemptData struct {
	// AppID は認証を要求したアプリケーションのID。
	AppID int64 `json:"app_id"`
	// RequestID はHTTPリクエストの識別子。
	RequestID string `json:"request_id,omitempty"`
	// ErrorCodes はIDサービスが返したエラーコード。成功時は空。
	ErrorCodes []string `json:"error_codes,omitempty"`
	// Message はユーザーに表示したエラーメッセージ。成功時は空。
	Message string `json:"message,omitempty"`
}

// Succeeded はイベントが認証成功を表す場合にtrueを返す。
func (t Type) Succeeded() bool {
	return t == TypeLoginSucceeded || t == TypeSignupSucceeded
}
