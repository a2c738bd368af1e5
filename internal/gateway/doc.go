// Package gateway はauthgateのHTTPサーバーを提供する。
//
// ログインとサインアップのHTMLフォームを返し、フォームの送信を受けて
// IDサービスにセッション作成・ユーザー作成を依頼する。成功した場合は
// 呼び出し元が指定したredirectUrlにアクセストークンを付けてリダイレクトし、
// 失敗した場合はエラーメッセージを付けて元のフォームに戻す。
// リクエスト間で共有する可変状態は持たない。
package gateway
