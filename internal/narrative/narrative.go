// Package narrative turns cluster samples into short labels and a debate summary
// using the completion service, with deterministic fallbacks.
package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RonitKhanna333/sih-final-2/internal/llm"
)

const (
	maxSamples        = 5
	maxSampleRunes    = 150
	labelMaxTokens    = 40
	labelMaxLen       = 40
	labelMinLen       = 3
	narrativeMaxToken = 110
	narrativeMaxLen   = 500
)

// FallbackNarrative is returned when no usable narrative could be generated.
const FallbackNarrative = "Debate landscape summary (English) unavailable."

// forbiddenTokens mark text that leaked tooling or mock output instead of content.
var forbiddenTokens = []string{"llm", "mock", "groq", "openai"}

// Generator writes cluster labels and narratives.
type Generator struct {
	completer llm.Completer
}

// New creates a Generator. A nil completer makes every call fall back.
func New(completer llm.Completer) *Generator {
	return &Generator{completer: completer}
}

// FallbackLabel is the placeholder label for cluster id.
func FallbackLabel(clusterID int) string {
	return fmt.Sprintf("Group %d", clusterID+1)
}

// Label names a cluster from up to five sample texts.
func (g *Generator) Label(ctx context.Context, clusterID int, samples []string) string {
	if g.completer == nil || len(samples) == 0 {
		return FallbackLabel(clusterID)
	}

	var b strings.Builder

	b.WriteString("Provide a SHORT (3-5 words) theme label for this feedback set. ")
	b.WriteString("Respond in ENGLISH only using ASCII characters. Do not add quotes or punctuation beyond spaces.\n")

	for _, s := range samples[:min(maxSamples, len(samples))] {
		b.WriteString("- ")
		b.WriteString(truncateRunes(strings.TrimSpace(s), maxSampleRunes))
		b.WriteString("\n")
	}

	out, err := g.completer.Complete(ctx, b.String(), labelMaxTokens)
	if err != nil {
		reason, _ := llm.ReasonOf(err)
		slog.DebugContext(ctx, "Cluster label fell back", "cluster_id", clusterID, "reason", reason)

		return FallbackLabel(clusterID)
	}

	first, _, _ := strings.Cut(out.Text, "\n")
	label := strings.Trim(Sanitize(first, labelMaxLen), `"' `)

	if len(label) < labelMinLen || HasForbiddenToken(label) {
		return FallbackLabel(clusterID)
	}

	return label
}

// Narrative writes a two sentence overview of the debate.
func (g *Generator) Narrative(ctx context.Context, labels []string, itemCount int) string {
	if g.completer == nil {
		return FallbackNarrative
	}

	prompt := fmt.Sprintf(
		"Two sentence narrative of the debate with %d groups and %d items. Write in ENGLISH only. Groups: %s",
		len(labels), itemCount, strings.Join(labels, "; "),
	)

	out, err := g.completer.Complete(ctx, prompt, narrativeMaxToken)
	if err != nil {
		reason, _ := llm.ReasonOf(err)
		slog.DebugContext(ctx, "Debate narrative fell back", "reason", reason)

		return FallbackNarrative
	}

	text := Sanitize(out.Text, narrativeMaxLen)
	if text == "" || HasForbiddenToken(text) {
		return FallbackNarrative
	}

	return text
}

// Sanitize keeps printable ASCII, trims, and caps the result at maxLen bytes.
// Every other rune is dropped, except newline, carriage return and tab, which
// become spaces so words on separate lines stay apart ("Cost\nBurden" gives
// "Cost Burden", not "CostBurden").
func Sanitize(s string, maxLen int) string {
	var b strings.Builder

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case r >= 0x20 && r <= 0x7E:
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if len(out) > maxLen {
		out = strings.TrimSpace(out[:maxLen])
	}

	return out
}

// HasForbiddenToken reports whether s mentions a tooling token, case insensitively.
func HasForbiddenToken(s string) bool {
	lower := strings.ToLower(s)

	for _, tok := range forbiddenTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}

	return false
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
