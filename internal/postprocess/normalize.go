package postprocess

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type lineKind int

const (
	kindBlank lineKind = iota
	kindText
	kindHeader
	kindList
	kindListCont
	kindCode
	kindRaw // tables, quotes, rules: kept as-is, no sentence splitting
)

var (
	headerLine = regexp.MustCompile(`^#{1,6}(\s|$)`)
	listLine   = regexp.MustCompile(`^\s*([-*+]|\d{1,3}[.)])\s+\S`)
	ruleLine   = regexp.MustCompile(`^\s*([-*_]\s*){3,}$`)
)

// Normalize tidies model prose for display: blank-line runs collapse to one,
// headers and list blocks are set off by blank lines, and a sentence ending
// a line is split from a capitalised line that follows it. Fenced code is
// left alone apart from blank-run collapsing. Normalize(Normalize(s)) ==
// Normalize(s) for every s.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	kinds := classify(lines)

	out := make([]string, 0, len(lines)+8)
	prev := kindBlank
	prevLine := ""
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		kind := kinds[i]

		if kind == kindBlank {
			if len(out) > 0 && out[len(out)-1] != "" {
				out = append(out, "")
			}
			prev = kindBlank
			continue
		}

		if prev != kindBlank && needsBreak(prev, prevLine, kind, line) {
			out = append(out, "")
		}
		out = append(out, line)
		prev, prevLine = kind, line
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// classify assigns a kind to every line. A line's kind depends only on its
// own text, the fence state and the previous non-blank line, never on blank
// lines, which is what keeps Normalize idempotent.
func classify(lines []string) []lineKind {
	kinds := make([]lineKind, len(lines))
	inFence := false
	lastNonBlank := kindBlank

	for i, raw := range lines {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "```"):
			kinds[i] = kindCode
			inFence = !inFence
		case inFence:
			if trimmed == "" {
				kinds[i] = kindBlank
			} else {
				kinds[i] = kindCode
			}
		case trimmed == "":
			kinds[i] = kindBlank
		case headerLine.MatchString(line):
			kinds[i] = kindHeader
		case ruleLine.MatchString(line):
			kinds[i] = kindRaw
		case listLine.MatchString(line):
			kinds[i] = kindList
		case startsIndented(line) && (lastNonBlank == kindList || lastNonBlank == kindListCont):
			kinds[i] = kindListCont
		case strings.HasPrefix(trimmed, "|") || strings.HasPrefix(trimmed, ">"):
			kinds[i] = kindRaw
		default:
			kinds[i] = kindText
		}

		if kinds[i] != kindBlank {
			lastNonBlank = kinds[i]
		}
	}
	return kinds
}

func needsBreak(prev lineKind, prevLine string, cur lineKind, line string) bool {
	if prev == kindCode || cur == kindCode {
		return false
	}
	if prev == kindHeader || cur == kindHeader {
		return true
	}
	prevInList := prev == kindList || prev == kindListCont
	curInList := cur == kindList || cur == kindListCont
	if prevInList != curInList {
		return true
	}
	if prev == kindText && cur == kindText {
		return endsSentence(prevLine) && startsCapitalised(line)
	}
	return false
}

func startsIndented(line string) bool {
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}

func endsSentence(line string) bool {
	line = strings.TrimRight(line, `"')]*_”’`)
	r, _ := utf8.DecodeLastRuneInString(line)
	return r == '.' || r == '!' || r == '?'
}

func startsCapitalised(line string) bool {
	line = strings.TrimLeft(line, " \t\"'(*_“‘")
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsUpper(r)
}
