package observability

import (
	"context"
	"io"
	"log/slog"

	"github.com/sqlask/sqlask/internal/config"
)

type ctxKey string

const questionIDKey ctxKey = "question_id"

func NewLogger(cfg config.Config, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	var handler slog.Handler
	if cfg.Observability.LogJSON {
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: cfg.Observability.LogLevel})
	} else {
		handler = slog.NewTextHandler(writer, &slog.HandlerOptions{Level: cfg.Observability.LogLevel})
	}
	return slog.New(handler).With(
		slog.String("service", cfg.Service.Name),
		slog.String("profile", string(cfg.Profile)),
	)
}

func ContextWithQuestionID(ctx context.Context, questionID string) context.Context {
	return context.WithValue(ctx, questionIDKey, questionID)
}

func QuestionIDFromContext(ctx context.Context) string {
	value, ok := ctx.Value(questionIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

// LoggerFromContext tags logger with the question id carried by ctx, if any.
func LoggerFromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if id := QuestionIDFromContext(ctx); id != "" {
		return logger.With(slog.String("question_id", id))
	}
	return logger
}
