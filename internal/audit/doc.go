// Package audit はログイン・サインアップ試行の監査ジャーナルを提供する。
//
// ゲートウェイが生成したevent.EventをSQLiteに追記する。記録は追記のみで
// 更新・削除は行わない。セッション管理には使用しない。
package audit
