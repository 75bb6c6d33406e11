// Package sandbox は基準ディレクトリ配下に閉じたパス解決と読み取り専用の列挙を提供する。
//
// 利用者が指定した相対パスは基準ディレクトリと結合した後に正規化（シンボリックリンクと
// ".." の解決）され、正規化後のパスが基準ディレクトリの外を指す場合は必ず拒否される。
// ファイルの参照・一覧・ダウンロードのすべての操作はこの検査を経由する。
package sandbox
