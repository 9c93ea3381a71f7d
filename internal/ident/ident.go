// Package ident derives note identifiers and display titles from paths.
package ident

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// NoteExt is the extension of note files.
	NoteExt = ".md"
	// IndexName is the reserved stem of generated index documents.
	IndexName = "_index"
)

// FromPath returns the identifier of the note at p: its slash-separated path
// relative to root with the note extension stripped.
func FromPath(root, p string) (string, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", fmt.Errorf("ident: %s not under %s: %w", p, root, err)
	}
	return StripExt(filepath.ToSlash(rel)), nil
}

// StripExt removes a trailing note extension.
func StripExt(rel string) string {
	return strings.TrimSuffix(rel, NoteExt)
}

// IsNote reports whether name carries the note extension.
func IsNote(name string) bool {
	return path.Ext(name) == NoteExt
}

// IsIndexFile reports whether name is a generated index document.
func IsIndexFile(name string) bool {
	return name == IndexName+NoteExt
}

// IndexOf returns the identifier of the index document of directory rel.
func IndexOf(rel string) string {
	if rel == "" {
		return IndexName
	}
	return rel + "/" + IndexName
}

// IsHidden reports whether a path relative to the tree root begins with
// the hidden marker.
func IsHidden(rel string) bool {
	return strings.HasPrefix(rel, ".")
}

var titler = cases.Title(language.Und)

// TitleCase turns a file or directory name into a display title:
// "daily-log" and "dailyLog" both become "Daily Log".
func TitleCase(s string) string {
	words := splitWords(s)
	for i, w := range words {
		words[i] = titler.String(w)
	}
	return strings.Join(words, " ")
}

// splitWords breaks s on every non-alphanumeric rune and on lower-to-upper
// case boundaries ("fooBar", "HTTPServer").
func splitWords(s string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
