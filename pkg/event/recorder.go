package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// New は新しいイベントを生成する。
// dataにはイベント固有のデータ構造体を渡す。nilの場合はDataを省略する。
func New(eventType Type, subjectID, path string, data any) (*Event, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("イベントデータのシリアライズに失敗: %w", err)
		}
		raw = b
	}

	return &Event{
		ID:        uuid.New().String(),
		EventType: eventType,
		SubjectID: subjectID,
		Path:      path,
		Data:      raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Recorder はイベントを記録する。
type Recorder interface {
	Record(ctx context.Context, e *Event)
}

// LogRecorder はイベントを構造化ログとして出力するRecorder。
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder は新しいLogRecorderを生成する。loggerがnilの場合はデフォルトロガーを使用する。
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{logger: logger.WithGroup("access")}
}

// Record はイベントを1行のログとして出力する。
func (r *LogRecorder) Record(ctx context.Context, e *Event) {
	r.logger.LogAttrs(ctx, slog.LevelInfo, "access event",
		slog.String("id", e.ID),
		slog.String("type", string(e.EventType)),
		slog.String("subject_id", e.SubjectID),
		slog.String("path", e.Path),
		slog.String("data", string(e.Data)),
		slog.Time("created_at", e.CreatedAt),
	)
}

// Emit はイベントを生成して記録する。生成に失敗した場合は警告ログのみを出力する。
func Emit(ctx context.Context, r Recorder, eventType Type, subjectID, path string, data any) {
	if r == nil {
		return
	}
	e, err := New(eventType, subjectID, path, data)
	if err != nil {
		slog.WarnContext(ctx, "アクセスイベントの生成に失敗", "type", eventType, "error", err)
		return
	}
	r.Record(ctx, e)
}
