// Package event はファイルアクセスの監査イベントを表す型と記録処理を提供する。
//
// 認証済みユーザーによるプロフィール参照、ファイル参照・ダウンロード、
// ディレクトリ一覧の取得が成功するたびに不変のイベントを1件生成する。
package event
