// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// 外部IDプロバイダーへ委譲するBearerトークン認証、パニックリカバリ、
// CORS設定、分類済みエラーのJSON応答など、ゲートウェイで共通して使用する処理を含む。
package middleware
