// Package identity は外部IDサービスのクライアントを提供する。
//
// IDサービスはメールアドレスとパスワードを検証してセッションを作成し、
// 新規ユーザーを登録してアクセストークンを発行する。プロトコルの詳細は
// このパッケージに閉じ込め、ゲートウェイには「成功ならアクセストークン、
// 失敗ならエラーコードの列」という結果だけを返す。
//
// アプリケーション資格情報（APIキー、シークレットキー、インスタンスID）は
// 起動時に一度だけ渡され、以後変更されない。Clientは複数のgoroutineから
// 同時に使用してよい。
package identity
