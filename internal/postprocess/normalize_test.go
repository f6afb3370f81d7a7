package postprocess

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses blank runs",
			in:   "one\n\n\n\ntwo",
			want: "one\n\ntwo",
		},
		{
			name: "header spacing",
			in:   "Intro line\n## Heading\nBody text",
			want: "Intro line\n\n## Heading\n\nBody text",
		},
		{
			name: "list block spacing",
			in:   "Steps:\n- first\n- second\n  more about second\nAfterwards text",
			want: "Steps:\n\n- first\n- second\n  more about second\n\nAfterwards text",
		},
		{
			name: "numbered list",
			in:   "Intro\n1. one\n2) two",
			want: "Intro\n\n1. one\n2) two",
		},
		{
			name: "sentence break",
			in:   "Cells divide.\nThis is mitosis!\nand it continues",
			want: "Cells divide.\n\nThis is mitosis!\nand it continues",
		},
		{
			name: "no break after quoted sentence into lowercase",
			in:   "He said \"stop.\"\nthen left",
			want: "He said \"stop.\"\nthen left",
		},
		{
			name: "code fences untouched",
			in:   "```\n# not a header\nx = 1.\nY = 2\n```\nAfter.",
			want: "```\n# not a header\nx = 1.\nY = 2\n```\nAfter.",
		},
		{
			name: "crlf and trailing spaces",
			in:   "a  \r\n\r\n\r\n\r\nb\t",
			want: "a\n\nb",
		},
		{
			name: "leading and trailing blanks",
			in:   "\n\n  \nText\n\n",
			want: "Text",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

var fragments = []string{
	"# Title", "## Sub heading", "###", "- item", "* star item", "+ plus", "1. first", "2) second",
	"  indented continuation", "\tTabbed", "Sentence ends here.", "Another one!", "Is it?",
	"lowercase start", "Capital start", "\"Quoted.\"", "*Emphasis.*", "```", "```go", "| a | b |",
	"> quote", "---", "", "", "   ", "\t", "\r", "trailing   ", "Ünïcödé sentence.", "ä lower",
	"word", "x.", "Y",
}

func randomDocument(r *rand.Rand) string {
	n := r.Intn(25)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fragments[r.Intn(len(fragments))]
	}
	sep := "\n"
	if r.Intn(4) == 0 {
		sep = "\r\n"
	}
	return strings.Join(parts, sep)
}

func TestNormalize_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(20240601))
	for i := 0; i < 5000; i++ {
		doc := randomDocument(r)
		once := Normalize(doc)
		twice := Normalize(once)
		if !assert.Equal(t, once, twice, "input %q", doc) {
			return
		}
		assert.NotContains(t, once, "\n\n\n", "input %q", doc)
		assert.NotContains(t, once, "\r", "input %q", doc)
	}
}
