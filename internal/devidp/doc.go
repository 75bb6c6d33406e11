// Package devidp は開発用のIDプロバイダーを提供する。
//
// Microsoft Graphの /v1.0/me と同じ形式でユーザー情報を返すため、
// クラウドのテナントを用意せずにファイル配信ゲートウェイを動かせる。
// ユーザーはSQLiteに保存し、トークンはHS256で署名したJWTを発行する。
// 本番環境での利用は想定していない。
package devidp
