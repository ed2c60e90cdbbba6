package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/RonitKhanna333/sih-final-2/pkg/apiclient"
)

const (
	colText            = "text"
	colStakeholderType = "stakeholder_type"
	colSector          = "sector"
	colLanguage        = "language"

	maxTextLen = 10000
)

type feedbackPoster interface {
	CreateFeedback(ctx context.Context, req *apiclient.CreateFeedbackRequest) (*apiclient.Feedback, error)
}

// row is one parsed CSV line with its 1-based line number.
type row struct {
	line int
	req  *apiclient.CreateFeedbackRequest
}

type ingestStats struct {
	Created int
	Failed  int
	Skipped int
}

// readRows parses the CSV. Rows with an empty or oversized text, or that fail to
// parse, are counted as skipped.
func readRows(r io.Reader) ([]row, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}

	if _, ok := cols[colText]; !ok {
		return nil, 0, fmt.Errorf("csv header has no %q column", colText)
	}

	get := func(record []string, name string) *string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return nil
		}

		v := strings.TrimSpace(record[i])
		if v == "" {
			return nil
		}

		return &v
	}

	var (
		rows    []row
		skipped int
	)

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			slog.Warn("Skipping unreadable row", "line", line, "error", err)

			skipped++

			continue
		}

		text := get(record, colText)
		if text == nil || len([]rune(*text)) > maxTextLen {
			slog.Debug("Skipping row without usable text", "line", line)

			skipped++

			continue
		}

		rows = append(rows, row{
			line: line,
			req: &apiclient.CreateFeedbackRequest{
				Text:            *text,
				StakeholderType: get(record, colStakeholderType),
				Sector:          get(record, colSector),
				Language:        lowerOrNil(get(record, colLanguage)),
			},
		})
	}

	return rows, skipped, nil
}

// ingest posts rows in order at the limiter's pace. A nil poster is a dry run.
// Cancellation stops before the next row.
func ingest(ctx context.Context, poster feedbackPoster, limiter *rate.Limiter, rows []row) ingestStats {
	var stats ingestStats

	for _, r := range rows {
		if poster == nil {
			slog.Info("Dry run", "line", r.line, "text", preview(r.req.Text))

			stats.Created++

			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			slog.Warn("Ingestion cancelled", "line", r.line, "error", err)

			break
		}

		fb, err := poster.CreateFeedback(ctx, r.req)
		if err != nil {
			slog.Error("Failed to create feedback", "line", r.line, "error", err)

			stats.Failed++

			continue
		}

		slog.Info("Created feedback", "line", r.line, "id", fb.ID, "sentiment", fb.Sentiment)

		stats.Created++
	}

	return stats
}

func lowerOrNil(s *string) *string {
	if s == nil {
		return nil
	}

	v := strings.ToLower(*s)

	return &v
}

func preview(s string) string {
	const n = 60

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n]) + "..."
}
