package memory

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sandevgo/elvamem/internal/config"
	"github.com/sandevgo/elvamem/internal/core"
	"github.com/sandevgo/elvamem/pkg/log"
)

const (
	factsHeader    = "Known facts:"
	historyHeader  = "Conversation:"
	sectionDivider = "\n\n"
)

var (
	tkOnce sync.Once
	tk     *tiktoken.Tiktoken
)

// Assembler renders the working-memory blob handed to the assistant. It is
// read-only over the ledger and fact store and never fails: any tier that
// does not answer simply contributes nothing, down to an empty string.
type Assembler struct {
	ledger     *Ledger
	facts      *Facts
	windowSize int
	tokenStats bool
}

func NewAssembler(cfg *config.AppConfig, ledger *Ledger, facts *Facts) *Assembler {
	return &Assembler{
		ledger:     ledger,
		facts:      facts,
		windowSize: cfg.ContextWindowSize,
		tokenStats: cfg.TokenStats,
	}
}

// Build assembles active facts and recent history for a session into at most
// maxChars characters. Facts win when budget is tight: they are long-lived
// identity and preference data, while old messages are transient. Output is
// a pure function of stored state.
func (a *Assembler) Build(ctx context.Context, sessionID string, maxChars int) string {
	logger := log.FromCtx(ctx)

	if maxChars <= 0 {
		return ""
	}

	facts, err := a.facts.ListActive(ctx, sessionID, "")
	if err != nil {
		logger.Warn().Err(err).Str("session", sessionID).Msg("facts unavailable for context build")
		facts = nil
	}

	messages, err := a.ledger.History(ctx, sessionID, a.windowSize)
	if err != nil {
		logger.Warn().Err(err).Str("session", sessionID).Msg("history unavailable for context build")
		messages = nil
	}

	out := render(facts, messages, maxChars)

	if a.tokenStats && out != "" {
		if t := getTokenizer(); t != nil {
			logger.Debug().
				Int("chars", utf8.RuneCountInString(out)).
				Int("tokens", len(t.Encode(out, nil, nil))).
				Str("session", sessionID).
				Msg("assembled context")
		}
	}

	return out
}

// render fills the budget facts-first, then walks messages newest to oldest,
// keeping whatever still fits and restoring chronological order at the end.
func render(facts []core.Fact, messages []core.Message, maxChars int) string {
	budget := maxChars

	var factLines []string
	if len(facts) > 0 {
		header := utf8.RuneCountInString(factsHeader)
		if header <= budget {
			factLines = append(factLines, factsHeader)
			budget -= header
			for _, f := range facts {
				line := "- " + f.Text
				cost := utf8.RuneCountInString(line) + 1 // newline
				if cost > budget {
					break
				}
				factLines = append(factLines, line)
				budget -= cost
			}
		}
		// A lone header is noise
		if len(factLines) == 1 {
			factLines = nil
			budget = maxChars
		}
	}

	var msgLines []string
	if len(messages) > 0 {
		divider := 0
		if len(factLines) > 0 {
			divider = utf8.RuneCountInString(sectionDivider)
		}
		header := utf8.RuneCountInString(historyHeader) + divider
		if header <= budget {
			budget -= header
			for i := len(messages) - 1; i >= 0; i-- {
				m := messages[i]
				line := strings.ToUpper(m.Role) + ": " + m.Content
				cost := utf8.RuneCountInString(line) + 1
				if cost > budget {
					break
				}
				msgLines = append(msgLines, line)
				budget -= cost
			}
			if len(msgLines) > 0 {
				// Collected newest-first, flip back
				for i, j := 0, len(msgLines)-1; i < j; i, j = i+1, j-1 {
					msgLines[i], msgLines[j] = msgLines[j], msgLines[i]
				}
				msgLines = append([]string{historyHeader}, msgLines...)
			}
		}
	}

	var sb strings.Builder
	if len(factLines) > 0 {
		sb.WriteString(strings.Join(factLines, "\n"))
	}
	if len(msgLines) > 0 {
		if sb.Len() > 0 {
			sb.WriteString(sectionDivider)
		}
		sb.WriteString(strings.Join(msgLines, "\n"))
	}
	return sb.String()
}

func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		t, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			// Token counts are diagnostics only; run without them
			return
		}
		tk = t
	})
	return tk
}
