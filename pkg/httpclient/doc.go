// Package httpclient は外部サービスへのHTTP通信を行うクライアントを提供する。
//
// IDプロバイダーへのトークン検証呼び出しなど、JSONを返す外部APIの呼び出しに使用する。
// タイムアウトを必ず設定し、リトライは行わない。
package httpclient
