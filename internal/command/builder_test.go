package command

import (
	"reflect"
	"strings"
	"testing"

	"github.com/CloudShih/ripsearch/internal/models"
)

func baseParams() *models.SearchParameters {
	return &models.SearchParameters{Pattern: "TODO", SearchPath: "."}
}

func argvString(argv []string) string { return strings.Join(argv, " ") }

func TestBuild_Deterministic(t *testing.T) {
	b := NewBuilder("rg", FormatJSON)
	p := &models.SearchParameters{
		Pattern:         "TODO",
		SearchPath:      "/src",
		FileTypes:       []string{"py", "*.md"},
		ExcludePatterns: []string{"vendor/**"},
		ContextLines:    3,
		MaxResults:      50,
	}
	first := b.Build(p)
	second := b.Build(p)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical parameters produced different argv")
	}
	if first[0] != "rg" {
		t.Fatalf("argv[0] = %q, want executable", first[0])
	}
}

func TestBuild_DefaultsAreExplicit(t *testing.T) {
	argv := argvString(NewBuilder("", FormatJSON).Build(baseParams()))
	for _, want := range []string{"--json", "--ignore-case", "--fixed-strings", "--no-follow", "--no-hidden", "--threads 0"} {
		if !strings.Contains(argv, want) {
			t.Fatalf("argv missing %q: %s", want, argv)
		}
	}
	if strings.Contains(argv, "--max-depth") {
		t.Fatalf("unset max depth must not be emitted: %s", argv)
	}
}

func TestBuild_FlagPolicy(t *testing.T) {
	p := baseParams()
	p.CaseSensitive = true
	p.RegexMode = true
	p.WholeWords = true
	p.Multiline = true
	p.FollowSymlinks = true
	p.SearchHidden = true
	p.MaxDepth = 4
	argv := argvString(NewBuilder("rg", FormatJSON).Build(p))

	for _, want := range []string{"--case-sensitive", "--word-regexp", "--multiline", "--follow", "--hidden", "--max-depth 4"} {
		if !strings.Contains(argv, want) {
			t.Fatalf("argv missing %q: %s", want, argv)
		}
	}
	for _, reject := range []string{"--ignore-case", "--fixed-strings", "--no-follow", "--no-hidden"} {
		if strings.Contains(argv, reject) {
			t.Fatalf("argv must not contain %q: %s", reject, argv)
		}
	}
}

func TestBuild_FileTypeTokens(t *testing.T) {
	p := baseParams()
	p.FileTypes = []string{"*.md", ".txt", "py", " "}
	p.ExcludePatterns = []string{"node_modules/**"}
	argv := argvString(NewBuilder("rg", FormatJSON).Build(p))

	for _, want := range []string{"--glob *.md", "--glob *.txt", "--type py", "--glob !node_modules/**"} {
		if !strings.Contains(argv, want) {
			t.Fatalf("argv missing %q: %s", want, argv)
		}
	}
}

func TestBuild_TextFormat(t *testing.T) {
	argv := argvString(NewBuilder("rg", FormatText).Build(baseParams()))
	for _, want := range []string{"--color=always", "--line-number", "--column", "--with-filename", "--no-heading"} {
		if !strings.Contains(argv, want) {
			t.Fatalf("text argv missing %q: %s", want, argv)
		}
	}
	if strings.Contains(argv, "--json") {
		t.Fatalf("text argv must not request json: %s", argv)
	}
}

func TestBuild_PatternIsLastBeforePath(t *testing.T) {
	p := baseParams()
	p.Pattern = "--help" // pattern that looks like a flag must stay safe
	argv := NewBuilder("rg", FormatJSON).Build(p)
	n := len(argv)
	if argv[n-3] != "-e" || argv[n-2] != "--help" || argv[n-1] != "." {
		t.Fatalf("pattern/path tail wrong: %v", argv[n-3:])
	}
}
