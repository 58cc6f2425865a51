// Package pdftext recovers raw text from binary PDF documents. It is the
// boundary in front of the extraction engine: callers get either the full
// line-preserving text of the document or ErrUnreadable, never a partial
// result.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadable indicates the document's text could not be recovered
// (corrupt, encrypted, or not a PDF at all).
var ErrUnreadable = errors.New("document is not readable")

// Recoverer turns a binary document into raw text. Implementations must
// respect context cancellation; a stalled document must not block the
// request beyond the caller's deadline.
type Recoverer interface {
	Recover(ctx context.Context, document []byte) (string, error)
}

// Reader recovers text from PDF documents, one line per visually distinct
// text row, in top-to-bottom page order. Positional extraction heuristics
// rely on that ordering.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a PDF text reader
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

type recovered struct {
	text string
	err  error
}

// Recover extracts the full text of the document. It runs the extraction in
// a goroutine so a malformed document that stalls the parser fails with the
// context's deadline instead of hanging the upload.
func (r *Reader) Recover(ctx context.Context, document []byte) (string, error) {
	done := make(chan recovered, 1)

	go func() {
		text, err := extractText(document)
		done <- recovered{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		r.logger.Warn("text recovery timed out", slog.Any("error", ctx.Err()))
		return "", fmt.Errorf("%w: %v", ErrUnreadable, ctx.Err())
	case res := <-done:
		if res.err != nil {
			r.logger.Warn("text recovery failed", slog.Any("error", res.err))
			return "", fmt.Errorf("%w: %v", ErrUnreadable, res.err)
		}
		if strings.TrimSpace(res.text) == "" {
			return "", fmt.Errorf("%w: no text content", ErrUnreadable)
		}
		return res.text, nil
	}
}

func extractText(document []byte) (text string, err error) {
	// The pdf library panics on some malformed inputs; turn that into a
	// normal error so the upload fails cleanly.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", pageNum, err)
		}

		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			line := strings.TrimSpace(strings.Join(words, " "))
			if line != "" {
				builder.WriteString(line)
				builder.WriteString("\n")
			}
		}
	}

	return builder.String(), nil
}
