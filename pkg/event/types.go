package event

import (
	"encoding/json"
	"time"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeProfileViewed はユーザーが自身のプロフィールを参照したことを表す。
	TypeProfileViewed Type = "ProfileViewed"
	// TypeFileRead はファイルの内容が返されたことを表す。
	TypeFileRead Type = "FileRead"
	// TypeFileDownloaded はファイルが添付ファイルとして返されたことを表す。
	TypeFileDownloaded Type = "FileDownloaded"
	// TypeDirectoryListed はディレクトリ一覧が返されたことを表す。
	TypeDirectoryListed Type = "DirectoryListed"
)

// Event は1回のアクセスを表す不変のレコード。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// SubjectID はアクセスしたユーザーの識別子。
	SubjectID string `json:"subject_id"`
	// Path は基準ディレクトリからの相対パス。プロフィール参照では空。
	Path string `json:"path,omitempty"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data,omitempty"`
	// CreatedAt はイベントが作成された日時（UTC）。
	CreatedAt time.Time `json:"created_at"`
}

// FileData はFileRead/FileDownloadedイベントのデータ。
type FileData struct {
	// Size はファイルサイズ（バイト）。
	Size int64 `json:"size"`
	// ContentType は応答したMIMEタイプ。
	ContentType string `json:"content_type"`
}

// DirectoryListedData はDirectoryListedイベントのデータ。
type DirectoryListedData struct {
	// TotalItems は返したエントリ数。
	TotalItems int `json:"total_items"`
}
