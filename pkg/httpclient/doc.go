// Package httpclient は外部サービスとのJSON over HTTP通信を行うクライアントを提供する。
//
// authgateではIDサービス（セッション作成・ユーザー作成API）の呼び出しに使用する。
// タイムアウト、リクエストIDの伝播、認証ヘッダー付与のフックを一箇所にまとめ、
// 呼び出し側はリクエスト/レスポンスの構造体だけを意識すればよいようにする。
package httpclient
