// Package postprocess turns raw explanation text from the model into what
// the user sees: marker lines are pulled out and parsed, missing attribution
// is estimated, and the prose is normalized.
package postprocess

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"studynook-backend/internal/models"
)

// Marker lines may be wrapped in markdown emphasis or quoted, e.g.
// "**Source:** 40% from your notes" or "> NOTES_USED: a,b".
var (
	sourceMarker    = regexp.MustCompile(`(?im)^[ \t>*_]*source[ \t*_]*:(.*)$`)
	notesUsedMarker = regexp.MustCompile(`(?im)^[ \t>*_]*notes[_ ]used[ \t*_]*:(.*)$`)
)

const (
	NoMaterialsBreakdown = "100% from online/general knowledge (no study materials provided)"

	significantContentLength = 1000
	moderateContentLength    = 500
)

// ExtractSourceMarker parses the last "Source: ..." line in text. When found it
// returns the text with every Source line removed and the payload with only
// surrounding whitespace and emphasis removed.
func ExtractSourceMarker(text string) (body, payload string, found bool) {
	loc, value := lastMarker(sourceMarker, text)
	if loc == nil {
		return text, "", false
	}
	payload = trimMarkerValue(value)
	if payload == "" {
		return text, "", false
	}
	return removeMarkers(sourceMarker, text), payload, true
}

// ExtractNotesUsed parses the last "NOTES_USED: ..." line in text and strips
// every NOTES_USED line from the body. The ids are
// filtered to those present in known, deduplicated and kept in marker order.
// An explicit empty marker ("NOTES_USED: none") is found with no ids.
func ExtractNotesUsed(text string, known []models.SourceMaterial) (body string, ids []string, found bool) {
	loc, value := lastMarker(notesUsedMarker, text)
	if loc == nil {
		return text, nil, false
	}
	return removeMarkers(notesUsedMarker, text), parseNoteIDs(value, known), true
}

// BreakdownFor estimates how much of an explanation came from the student's
// materials when the model gave no Source line.
func BreakdownFor(materials []models.SourceMaterial) string {
	if len(materials) == 0 {
		return NoMaterialsBreakdown
	}
	notes := NotesShare(materials)
	return fmt.Sprintf("%d%% from your study materials, %d%% from online/general knowledge", notes, 100-notes)
}

// NotesShare buckets the total content length of materials into the share
// attributed to the student's notes.
func NotesShare(materials []models.SourceMaterial) int {
	total := 0
	for _, m := range materials {
		total += utf8.RuneCountInString(m.Content)
	}
	switch {
	case total >= significantContentLength:
		return 50
	case total >= moderateContentLength:
		return 30
	default:
		return 15
	}
}

// OverlapNoteIDs picks the materials whose content contains at least one
// word of the question longer than three characters, case-insensitively.
// It is a crude lexical match and only used when the model named no notes.
func OverlapNoteIDs(question string, materials []models.SourceMaterial) []string {
	words := questionWords(question)
	ids := []string{}
	if len(words) == 0 {
		return ids
	}

	seen := map[string]bool{}
	for _, m := range materials {
		if m.ID == "" || seen[m.ID] {
			continue
		}
		content := strings.ToLower(m.Content)
		for _, w := range words {
			if strings.Contains(content, w) {
				ids = append(ids, m.ID)
				seen[m.ID] = true
				break
			}
		}
	}
	return ids
}

// AttributeBreakdown produces the user-visible explanation and its source
// breakdown from raw context-mode output.
func AttributeBreakdown(raw string, materials []models.SourceMaterial) (text, breakdown string) {
	body, payload, found := ExtractSourceMarker(raw)
	if !found {
		payload = BreakdownFor(materials)
	}
	return Normalize(body), payload
}

// AttributeNotes produces the user-visible explanation and the ids of the
// notes it drew on from raw question-mode output.
func AttributeNotes(raw, question string, materials []models.SourceMaterial) (text string, ids []string) {
	body, ids, found := ExtractNotesUsed(raw, materials)
	if !found {
		ids = OverlapNoteIDs(question, materials)
	}
	return Normalize(body), ids
}

func lastMarker(re *regexp.Regexp, text string) ([]int, string) {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, ""
	}
	m := matches[len(matches)-1]
	return m[:2], text[m[2]:m[3]]
}

// removeMarkers cuts every line matched by re, last first so earlier
// offsets stay valid.
func removeMarkers(re *regexp.Regexp, text string) string {
	matches := re.FindAllStringIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		start, end := matches[i][0], matches[i][1]
		if end < len(text) && text[end] == '\n' {
			end++
		} else if start > 0 && text[start-1] == '\n' {
			start--
		}
		text = text[:start] + text[end:]
	}
	return strings.TrimSpace(text)
}

func trimMarkerValue(v string) string {
	return strings.Trim(strings.TrimSpace(v), " \t*_\"")
}

func parseNoteIDs(value string, known []models.SourceMaterial) []string {
	valid := make(map[string]bool, len(known))
	for _, m := range known {
		if m.ID != "" {
			valid[m.ID] = true
		}
	}

	ids := []string{}
	seen := map[string]bool{}
	for _, part := range strings.Split(value, ",") {
		id := strings.Trim(strings.TrimSpace(part), " \t*_[]\"'`")
		if id == "" || !valid[id] || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func questionWords(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := []string{}
	seen := map[string]bool{}
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= 3 || seen[f] {
			continue
		}
		seen[f] = true
		words = append(words, f)
	}
	return words
}
