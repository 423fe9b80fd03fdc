package services

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"projetodesenvolve/meeting-evaluator/internal/rubric"
)

// FailureArchive keeps unparseable evaluation texts as JSON lines so the
// rubric and prompt can be tuned against real failures.
type FailureArchive interface {
	Record(sessionID string, result rubric.Result)
	Close() error
}

type failureArchive struct {
	out    io.WriteCloser
	logger *slog.Logger
}

// NewFailureArchive writes to path, rotating at maxSizeMB and keeping
// maxBackups compressed files.
func NewFailureArchive(path string, maxSizeMB, maxBackups int) FailureArchive {
	return newFailureArchive(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	})
}

func newFailureArchive(out io.WriteCloser) *failureArchive {
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && (a.Key == slog.LevelKey || a.Key == slog.MessageKey) {
				return slog.Attr{}
			}
			return a
		},
	})
	return &failureArchive{out: out, logger: slog.New(handler)}
}

// Record implements FailureArchive.
func (a *failureArchive) Record(sessionID string, result rubric.Result) {
	raw := ""
	if result.RawText != nil {
		raw = *result.RawText
	}
	a.logger.Info("",
		slog.String("session_id", sessionID),
		slog.String("status", string(result.Status)),
		slog.Int("final_score", result.FinalScore),
		slog.String("raw_text", raw),
		slog.Any("unclassified", result.Unclassified),
	)
}

// Close implements FailureArchive.
func (a *failureArchive) Close() error {
	return a.out.Close()
}
