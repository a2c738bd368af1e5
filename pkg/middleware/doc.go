// Package middleware はauthgateのHTTPサーバーで使用する共通Ginミドルウェアを提供する。
//
// リクエストIDの付与とパニックリカバリを含む。どちらもブラウザ向けの
// HTMLフォームを返すサーバーを前提とし、エラー応答はプレーンテキストで返す。
package middleware
