// Package fileserver はファイル配信ゲートウェイの内部実装を提供する。
//
// 保護されたすべてのリクエストはBearerトークンを外部IDプロバイダーで検証した後、
// 基準ディレクトリ配下に閉じたパス解決を経て読み取り専用で処理される。
// ユーザー情報の参照、ファイルの参照・ダウンロード、ディレクトリ一覧の4操作を提供する。
package fileserver
