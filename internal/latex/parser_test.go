package latex

import (
	"reflect"
	"strings"
	"testing"
)

const sampleResume = `\documentclass{article}
\newcommand{\highlight}[1]{\textbf{#1}}
\begin{document}
\section{Experience}
\begin{itemize}
  \item Built dashboards for the sales team
  \item Led migration of \textbf{legacy} services to Kubernetes
\end{itemize}
\section{Skills}
\begin{itemize}
  \item Go, Python, SQL
\end{itemize}
\end{document}
`

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name:   "full resume",
			source: sampleResume,
		},
		{
			name:   "empty source",
			source: "",
		},
		{
			name:   "no sections",
			source: "just some text\nwith lines\n",
		},
		{
			name:   "escaped braces",
			source: `\section{Skills} \item 50\% coverage with \{braces\} literal`,
		},
		{
			name:   "comment with unbalanced brace",
			source: "\\section{Experience}\n% a comment with a stray { brace\n\\item Did things\n",
		},
		{
			name:   "nested groups",
			source: `\section{X} \item Built \textbf{nested \emph{groups}} safely`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.source)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var b strings.Builder
			prev := 0
			for _, blk := range doc.Blocks {
				if blk.Start != prev {
					t.Fatalf("gap or overlap: block starts at %d, previous ended at %d", blk.Start, prev)
				}
				b.WriteString(doc.Text(blk))
				prev = blk.End
			}
			if prev != len(tt.source) {
				t.Fatalf("blocks cover %d bytes, source has %d", prev, len(tt.source))
			}
			if b.String() != tt.source {
				t.Errorf("round trip mismatch:\ngot:  %q\nwant: %q", b.String(), tt.source)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name:   "unclosed formatting group",
			source: `\item Missing close brace \textbf{Skill`,
		},
		{
			name:   "stray closing brace",
			source: `some text } more`,
		},
		{
			name:   "unterminated section argument",
			source: `\section{Experience`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.source); err == nil {
				t.Error("expected MalformedDocument error, got nil")
			}
		})
	}
}

func TestParseClassification(t *testing.T) {
	doc, err := Parse(sampleResume)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var kinds []BlockKind
	for _, b := range doc.Blocks {
		kinds = append(kinds, b.Kind)
	}
	want := []BlockKind{
		BlockPreamble,      // \documentclass line
		BlockPreamble,      // \newcommand definition
		BlockPreamble,      // \begin{document}
		BlockSectionHeader, // Experience
		BlockRawText,       // \begin{itemize}
		BlockBulletItem,
		BlockBulletItem,
		BlockRawText, // \end{itemize}
		BlockSectionHeader,
		BlockRawText,
		BlockBulletItem,
		BlockRawText,
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("block kinds = %v, want %v", kinds, want)
	}

	bullets := doc.BulletIndexes()
	if len(bullets) != 3 {
		t.Fatalf("expected 3 bullets, got %d", len(bullets))
	}
	if got := doc.BulletContent(bullets[0]); got != "Built dashboards for the sales team" {
		t.Errorf("bullet content = %q", got)
	}
	if sec := doc.Blocks[bullets[0]].Section; sec != "experience" {
		t.Errorf("bullet section = %q, want %q", sec, "experience")
	}
	if sec := doc.Blocks[bullets[2]].Section; sec != "skills" {
		t.Errorf("bullet section = %q, want %q", sec, "skills")
	}
	if got := doc.Sections(); !reflect.DeepEqual(got, []string{"experience", "skills"}) {
		t.Errorf("sections = %v", got)
	}
}

func TestParseItemLabel(t *testing.T) {
	doc, err := Parse(`\section{Skills}
\item[Languages] Go and Python
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bullets := doc.BulletIndexes()
	if len(bullets) != 1 {
		t.Fatalf("expected 1 bullet, got %d", len(bullets))
	}
	if got := doc.BulletContent(bullets[0]); got != "Go and Python" {
		t.Errorf("bullet content = %q, want label excluded", got)
	}
}

func TestRender(t *testing.T) {
	doc, err := Parse(sampleResume)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	identity, err := doc.Render(nil)
	if err != nil {
		t.Fatalf("render without edits: %v", err)
	}
	if identity != sampleResume {
		t.Error("render without edits did not reproduce the source")
	}

	bullets := doc.BulletIndexes()
	edited, err := doc.Render(map[int]string{
		bullets[0]: "Built Tableau dashboards for the sales team",
	})
	if err != nil {
		t.Fatalf("render with edit: %v", err)
	}
	if !strings.Contains(edited, "Built Tableau dashboards for the sales team") {
		t.Error("edited content missing from rendered output")
	}
	if strings.Count(edited, `\item`) != strings.Count(sampleResume, `\item`) {
		t.Error("render changed the number of \\item tokens")
	}
	if _, err := Parse(edited); err != nil {
		t.Errorf("rendered output no longer parses: %v", err)
	}

	if _, err := doc.Render(map[int]string{0: "x"}); err == nil {
		t.Error("expected error when editing a non-bullet block")
	}
}

func TestCommandTokens(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     []string
	}{
		{
			name:     "plain text",
			fragment: "Built dashboards",
			want:     nil,
		},
		{
			name:     "formatting commands in order",
			fragment: `Led \textbf{migration} to \emph{Kubernetes}`,
			want:     []string{"textbf", "emph"},
		},
		{
			name:     "escaped symbols are not commands",
			fragment: `50\% of \{cases\}`,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CommandTokens(tt.fragment); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CommandTokens(%q) = %v, want %v", tt.fragment, got, tt.want)
			}
		})
	}
}

func TestCheckFragment(t *testing.T) {
	if err := CheckFragment(`ok \textbf{bold} and 50\%`); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckFragment(`broken \textbf{bold`); err == nil {
		t.Error("expected error for unclosed group")
	}
}

func TestPageEstimate(t *testing.T) {
	short, _ := Parse("line\nline\nline\n")
	if got := short.PageEstimate(); got != 1 {
		t.Errorf("short document estimate = %d, want 1", got)
	}

	long, _ := Parse(strings.Repeat("a line of text\n", 120))
	if got := long.PageEstimate(); got != 3 {
		t.Errorf("long document estimate = %d, want 3", got)
	}

	broken, _ := Parse("first\n\\newpage\nsecond\n\\pagebreak\nthird\n")
	if got := broken.PageEstimate(); got != 3 {
		t.Errorf("page break estimate = %d, want 3", got)
	}
}

func BenchmarkParse(b *testing.B) {
	for b.Loop() {
		if _, err := Parse(sampleResume); err != nil {
			b.Fatal(err)
		}
	}
}
