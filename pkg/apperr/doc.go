// Package apperr はリクエスト処理中に発生するエラーの分類を提供する。
//
// すべてのエラーはリクエストにとって終端であり、Kindに応じたHTTPステータスに
// 変換されてクライアントへ返される。内部でのリトライや回復は行わない。
package apperr
