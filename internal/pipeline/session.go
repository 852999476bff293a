package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/sqlask/sqlask/internal/nl2sql"
)

const prompt = "Enter your question or 'exit' to quit: "

type Asker interface {
	Ask(ctx context.Context, question string) (Answer, error)
}

// Session reads questions line by line and answers each one before the
// next is read.
type Session struct {
	Asker  Asker
	Out    io.Writer
	Logger *slog.Logger
}

// Run returns nil on "exit" or end of input. Per-question errors are shown
// to the user and the loop continues; only a cancelled ctx or a read error
// ends it early.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	out := s.Out
	if out == nil {
		out = io.Discard
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, _ = fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read question: %w", err)
			}
			return nil
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "exit") {
			return nil
		}

		answer, err := s.Asker.Ask(ctx, question)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			logger.Error("question failed", slog.Any("error", err))
			_, _ = fmt.Fprintln(out, color.RedString(userMessage(err)))
			continue
		}
		if answer.Unanswerable != "" {
			_, _ = fmt.Fprintln(out, color.YellowString("Cannot answer with this database: %s", answer.Unanswerable))
		}
		if answer.ArchiveKey != "" {
			_, _ = fmt.Fprintf(out, "Report archived: %s\n", answer.ArchiveKey)
		}
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, nl2sql.ErrClassificationFormat):
		return "Could not understand the model's classification of the question. Please try rephrasing it."
	case errors.Is(err, nl2sql.ErrSynthesisTransport):
		return "Could not reach the language model to write the query. Please try again."
	case errors.Is(err, nl2sql.ErrTransport):
		return "Could not reach the language model. Please try again."
	default:
		return fmt.Sprintf("Could not answer the question: %v", err)
	}
}
