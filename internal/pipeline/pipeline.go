// Package pipeline answers one natural-language question end to end:
// classify, synthesize, extract, execute and optionally archive.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sqlask/sqlask/internal/archive"
	"github.com/sqlask/sqlask/internal/executor"
	"github.com/sqlask/sqlask/internal/nl2sql"
	"github.com/sqlask/sqlask/internal/observability"
	"github.com/sqlask/sqlask/internal/statement"
)

type StatementRunner interface {
	Execute(ctx context.Context, statements []string) executor.Report
}

type ReportArchiver interface {
	Archive(ctx context.Context, meta archive.Meta, report executor.Report) (string, error)
}

// Answer is the outcome of one question. Exactly one of Unanswerable and
// Report is meaningful.
type Answer struct {
	QuestionID   string
	Unanswerable string
	Raw          string
	Statements   []string
	Report       executor.Report
	ArchiveKey   string
}

type Pipeline struct {
	Classifier  nl2sql.Classifier
	Synthesizer nl2sql.Synthesizer
	Executor    StatementRunner
	// Archiver is optional.
	Archiver   ReportArchiver
	SchemaText string
	SessionID  string
	Out        io.Writer
	Logger     *slog.Logger

	seq int
}

// Ask runs one question. Classification and synthesis failures are
// returned; store failures stay inside the report.
func (p *Pipeline) Ask(ctx context.Context, question string) (Answer, error) {
	p.seq++
	answer := Answer{QuestionID: uuid.NewString()}
	ctx = observability.ContextWithQuestionID(ctx, answer.QuestionID)
	logger := observability.LoggerFromContext(ctx, p.Logger)
	out := p.Out
	if out == nil {
		out = io.Discard
	}

	intent, err := p.Classifier.Classify(ctx, question)
	if err != nil {
		observability.ObserveQuestion(observability.OutcomeFailed)
		return answer, fmt.Errorf("classify question: %w", err)
	}
	switch typed := intent.(type) {
	case nl2sql.Unanswerable:
		observability.ObserveQuestion(observability.OutcomeUnanswerable)
		logger.Info("question is not answerable", slog.String("reason", typed.Reason))
		answer.Unanswerable = typed.Reason
		return answer, nil
	case nl2sql.Queryable:
		logger.Debug("question classified",
			slog.Any("keywords", typed.Keywords),
			slog.Any("sub_queries", typed.SubQueries),
		)
	default:
		observability.ObserveQuestion(observability.OutcomeFailed)
		return answer, fmt.Errorf("classify question: %w: %T", nl2sql.ErrClassificationFormat, intent)
	}

	raw, err := p.Synthesizer.Synthesize(ctx, question, p.SchemaText)
	if err != nil {
		observability.ObserveQuestion(observability.OutcomeFailed)
		return answer, fmt.Errorf("synthesize query: %w", err)
	}
	answer.Raw = raw
	_, _ = fmt.Fprintf(out, "Response: %s\n", raw)

	answer.Statements = statement.Extract(raw)
	_, _ = fmt.Fprintf(out, "Parsed response: %s\n", formatStatements(answer.Statements))

	answer.Report = p.Executor.Execute(ctx, answer.Statements)
	if answer.Report.AllFailed() {
		observability.ObserveQuestion(observability.OutcomeFailed)
	} else {
		observability.ObserveQuestion(observability.OutcomeAnswered)
	}

	if p.Archiver != nil && answer.Report.Len() > 0 {
		meta := archive.Meta{SessionID: p.SessionID, QuestionSeq: p.seq, Question: question}
		key, err := p.Archiver.Archive(ctx, meta, answer.Report)
		if err != nil {
			logger.Warn("archive report failed", slog.Any("error", err))
		} else {
			answer.ArchiveKey = key
		}
	}
	return answer, nil
}

func formatStatements(statements []string) string {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(statements); err != nil {
		return fmt.Sprint(statements)
	}
	return string(bytes.TrimSpace(buf.Bytes()))
}
