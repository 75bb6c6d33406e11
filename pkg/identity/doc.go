// Package identity はBearerトークンを外部IDプロバイダーで検証し、
// 正規化されたユーザー情報を返す仕組みを提供する。
//
// トークンはこのシステムにとって不透明な値であり、署名検証等のローカル検証は行わない。
// 検証結果はキャッシュせず、リクエストごとに必ずIDプロバイダーへ問い合わせる。
package identity
