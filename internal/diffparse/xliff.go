// File path: internal/diffparse/xliff.go
package diffparse

import (
	"regexp"
	"strings"

	"github.com/openassess/asset-history/internal/textutil"
)

// maxSegmentDisplay caps a captured XLIFF segment in a summary.
const maxSegmentDisplay = 140

// captureState names the XLIFF automaton states.
type captureState int

const (
	stateIdle captureState = iota
	stateCapturingSource
	stateCapturingTarget
)

var (
	sourceOpen  = regexp.MustCompile(`<source[^>]*>`)
	targetOpen  = regexp.MustCompile(`<target[^>]*>`)
	sourceInner = regexp.MustCompile(`(?s)<source[^>]*>(.*)</source>`)
	targetInner = regexp.MustCompile(`(?s)<target[^>]*>(.*)</target>`)
)

// Segments holds the translated text added by one XLIFF patch. Deleted
// segments are deliberately ignored; the summary reports additions only.
type Segments struct {
	Source []string
	Target []string
}

// ExtractSegments runs the tag-capture automaton over a unified-diff patch,
// collecting the inner text of <source> and <target> elements that appear on
// added lines. A closing tag on an unmodified context line flushes the
// buffer without including that line.
func ExtractSegments(patch string) Segments {
	var (
		segs  Segments
		state = stateIdle
		buf   []string
	)

	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") || strings.HasPrefix(line, "@@") {
			continue
		}
		added := strings.HasPrefix(line, "+")
		content := line
		if added || strings.HasPrefix(line, "-") || strings.HasPrefix(line, " ") {
			content = line[1:]
		}

		if state == stateIdle {
			if !added {
				continue
			}
			switch {
			case sourceOpen.MatchString(content):
				state = stateCapturingSource
			case targetOpen.MatchString(content):
				state = stateCapturingTarget
			default:
				continue
			}
			buf = append(buf, content)
			if strings.Contains(content, closingTag(state)) {
				segs.flush(&state, &buf, false)
			}
			continue
		}

		closing := closingTag(state)
		if added {
			buf = append(buf, content)
			if strings.Contains(content, closing) {
				segs.flush(&state, &buf, false)
			}
			continue
		}
		if strings.HasPrefix(line, " ") && strings.Contains(content, closing) {
			// trailing hunk context closes the element; flush what the added
			// lines captured, without the context line itself
			segs.flush(&state, &buf, true)
		}
	}
	return segs
}

// flush extracts the element's inner text from the buffered lines and resets
// the automaton. synthesizeClose appends the closing tag first, for buffers
// terminated by a context line rather than an added one.
func (s *Segments) flush(state *captureState, buf *[]string, synthesizeClose bool) {
	joined := strings.Join(*buf, "\n")
	if synthesizeClose {
		joined += closingTag(*state)
	}
	inner := targetInner
	if *state == stateCapturingSource {
		inner = sourceInner
	}
	if m := inner.FindStringSubmatch(joined); m != nil {
		text := textutil.Truncate(textutil.CollapseWhitespace(textutil.StripHTML(m[1])), maxSegmentDisplay)
		if text != "" {
			if *state == stateCapturingSource {
				s.Source = append(s.Source, text)
			} else {
				s.Target = append(s.Target, text)
			}
		}
	}
	*state = stateIdle
	*buf = nil
}

func closingTag(state captureState) string {
	if state == stateCapturingSource {
		return "</source>"
	}
	return "</target>"
}

// LocaleLabel derives a display label for an XLIFF file from its path,
// defaulting to "Translations" when no locale code is present.
func LocaleLabel(filename string) string {
	if code, ok := textutil.InferLocale(filename); ok {
		return textutil.LanguageName(code)
	}
	return "Translations"
}

// SegmentSummary renders the captured segments as at most one line per
// segment type, citing up to two examples each.
func SegmentSummary(label string, segs Segments) []string {
	var out []string
	if line := segmentLine(label, "source", segs.Source); line != "" {
		out = append(out, line)
	}
	if line := segmentLine(label, "target", segs.Target); line != "" {
		out = append(out, line)
	}
	return out
}

func segmentLine(label, kind string, segs []string) string {
	if len(segs) == 0 {
		return ""
	}
	shown := segs
	suffix := ""
	if len(shown) > 2 {
		shown = shown[:2]
		suffix = ", …"
	}
	quoted := make([]string, 0, len(shown))
	for _, s := range shown {
		quoted = append(quoted, `"`+s+`"`)
	}
	return label + " " + kind + " additions: " + strings.Join(quoted, ", ") + suffix
}
