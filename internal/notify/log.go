package notify

import (
	"context"
	"log/slog"
)

// Log writes messages to a structured logger.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, msg Message) {
	level := slog.LevelInfo
	if msg.Severity == SeverityError {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, msg.Text,
		"kind", msg.Kind,
		"product_id", msg.ProductID,
		"cart_key", msg.CartKey,
	)
}
