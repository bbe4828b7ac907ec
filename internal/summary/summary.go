// File path: internal/summary/summary.go
package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/openassess/asset-history/internal/common"
	"github.com/openassess/asset-history/internal/diffparse"
	"github.com/openassess/asset-history/internal/github"
	"github.com/openassess/asset-history/internal/llm"
	"github.com/openassess/asset-history/internal/textutil"
)

const (
	maxBullets      = 3
	maxPromptChars  = 6000
	bulletSeparator = " • "
)

// HeaderFunc resolves the current column layout of the translation table,
// typically via a cached ranged read of the raw file. ok=false means the
// header could not be fetched and CSV extraction is skipped for this request.
type HeaderFunc func(ctx context.Context) (diffparse.Header, bool)

// Synthesizer turns a commit's file diffs into one short display string. It
// degrades step by step: specialized extraction, then an abstractive model
// call, then a mechanical description, then nothing.
type Synthesizer struct {
	provider       llm.Provider
	header         HeaderFunc
	translationCSV string
}

// New constructs a Synthesizer. provider may be nil; header may be nil when
// no translation table is configured.
func New(provider llm.Provider, header HeaderFunc, translationCSV string) *Synthesizer {
	return &Synthesizer{provider: provider, header: header, translationCSV: translationCSV}
}

// Summarize produces the display summary for one commit, or nil when nothing
// useful can be derived. It never returns an error; every failure inside is
// local to its step.
func (s *Synthesizer) Summarize(ctx context.Context, headline string, files []github.FileDiff) *string {
	if bullets := s.specialized(ctx, files); len(bullets) > 0 {
		joined := joinBullets(bullets)
		return &joined
	}
	if text := s.abstractive(ctx, headline, files); text != "" {
		return &text
	}
	if text := mechanical(files); text != "" {
		return &text
	}
	return nil
}

// specialized runs the CSV and XLIFF extractors over every file in the
// commit. CSV bullets lead; XLIFF bullets from sibling files are accumulated
// after them.
func (s *Synthesizer) specialized(ctx context.Context, files []github.FileDiff) []string {
	var csvBullets, xliffBullets []string
	var header diffparse.Header
	headerLoaded := false

	for _, file := range files {
		if file.Patch == "" {
			continue
		}
		switch diffparse.Classify(file.Filename, s.translationCSV) {
		case diffparse.KindCSV:
			if s.header == nil {
				continue
			}
			if !headerLoaded {
				var ok bool
				header, ok = s.header(ctx)
				if !ok {
					continue
				}
				headerLoaded = true
			}
			for _, rc := range diffparse.ExtractRowChanges(file.Patch, header) {
				if line := diffparse.RowSummary(rc, diffparse.Variations(rc, header)); line != "" {
					csvBullets = append(csvBullets, line)
				}
			}
		case diffparse.KindXLIFF:
			segs := diffparse.ExtractSegments(file.Patch)
			xliffBullets = append(xliffBullets, diffparse.SegmentSummary(diffparse.LocaleLabel(file.Filename), segs)...)
		}
	}
	return append(csvBullets, xliffBullets...)
}

func joinBullets(bullets []string) string {
	seen := make(map[string]struct{}, len(bullets))
	var unique []string
	for _, b := range bullets {
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		unique = append(unique, b)
	}
	truncated := len(unique) > maxBullets
	if truncated {
		unique = unique[:maxBullets]
	}
	out := strings.Join(unique, bulletSeparator)
	if truncated {
		out += bulletSeparator + "…"
	}
	return out
}

// abstractive asks the completion backend for a short description. Any
// failure returns "", never an error.
func (s *Synthesizer) abstractive(ctx context.Context, headline string, files []github.FileDiff) string {
	if s.provider == nil {
		return ""
	}
	prompt := buildPrompt(headline, files)
	text, err := s.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You summarize translation-content changes for a dashboard. Reply with one plain sentence, at most 25 words, no markdown."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		common.Logger().Warn("summary: abstractive step failed", "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

func buildPrompt(headline string, files []github.FileDiff) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Commit: %s\n", headline)

	stats := languageStats(files)
	if len(stats) > 0 {
		b.WriteString("Per-language line changes:\n")
		for _, st := range stats {
			fmt.Fprintf(&b, "  %s: +%d / -%d\n", st.label, st.added, st.removed)
		}
	}
	b.WriteString("Files:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "  %s (+%d / -%d)\n", f.Filename, f.Additions, f.Deletions)
	}

	b.WriteString("Added lines:\n")
	budget := maxPromptChars - b.Len()
	for _, f := range files {
		if budget <= 0 {
			break
		}
		for _, line := range strings.Split(f.Patch, "\n") {
			if !strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++") {
				continue
			}
			snippet := line
			if len(snippet) > budget {
				snippet = textutil.Truncate(snippet, budget)
			}
			b.WriteString(snippet)
			b.WriteString("\n")
			budget -= len(snippet) + 1
			if budget <= 0 {
				break
			}
		}
	}
	return b.String()
}

type langStat struct {
	label   string
	added   int
	removed int
}

// languageStats infers per-language added/removed line counts from filename
// locale codes. Files without an inferable locale contribute nothing.
func languageStats(files []github.FileDiff) []langStat {
	byLabel := make(map[string]*langStat)
	for _, f := range files {
		code, ok := textutil.InferLocale(f.Filename)
		if !ok {
			continue
		}
		label := textutil.LanguageName(code)
		st, exists := byLabel[label]
		if !exists {
			st = &langStat{label: label}
			byLabel[label] = st
		}
		st.added += f.Additions
		st.removed += f.Deletions
	}
	out := make([]langStat, 0, len(byLabel))
	for _, st := range byLabel {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].label < out[j].label })
	return out
}

// mechanical is the deterministic last resort: per-language counts when a
// locale is inferable, otherwise bare file/line totals.
func mechanical(files []github.FileDiff) string {
	if len(files) == 0 {
		return ""
	}
	if stats := languageStats(files); len(stats) > 0 {
		var parts []string
		for _, st := range stats {
			if st.added > 0 {
				parts = append(parts, fmt.Sprintf("added %d %s translations", st.added, st.label))
			}
			if st.removed > 0 {
				parts = append(parts, fmt.Sprintf("removed %d %s translations", st.removed, st.label))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	}
	var additions, deletions int
	for _, f := range files {
		additions += f.Additions
		deletions += f.Deletions
	}
	if additions == 0 && deletions == 0 {
		return ""
	}
	noun := "files"
	if len(files) == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s changed (+%d / -%d)", len(files), noun, additions, deletions)
}
