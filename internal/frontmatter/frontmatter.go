// Package frontmatter renders the YAML header of generated documents.
package frontmatter

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/zettl/internal/apperr"
)

// TimeLayout is the fixed format of the created field.
const TimeLayout = "2006-01-02 15:04:05"

const delim = "---\n"

// Timestamp is a local time encoded with TimeLayout.
type Timestamp time.Time

// MarshalYAML emits the timestamp as a plain scalar.
func (t Timestamp) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!timestamp",
		Value: time.Time(t).Local().Format(TimeLayout),
	}, nil
}

// UnmarshalYAML parses a TimeLayout value in the local time zone.
func (t *Timestamp) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseInLocation(TimeLayout, node.Value, time.Local)
	if err != nil {
		return fmt.Errorf("frontmatter: created: %w", err)
	}
	*t = Timestamp(parsed)
	return nil
}

// String returns the formatted timestamp.
func (t Timestamp) String() string {
	return time.Time(t).Local().Format(TimeLayout)
}

// FrontMatter is the metadata block prepended to indexes and note skeletons.
type FrontMatter struct {
	Title   string    `yaml:"title"`
	Author  string    `yaml:"author"`
	Created Timestamp `yaml:"created"`
}

// New builds a FrontMatter created at now.
func New(title, author string, now time.Time) FrontMatter {
	return FrontMatter{Title: title, Author: author, Created: Timestamp(now)}
}

// Render returns the header including the opening and closing delimiters.
func Render(fm FrontMatter) ([]byte, error) {
	data, err := yaml.Marshal(fm)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrSerialization, "encode front matter", "", err)
	}
	var buf bytes.Buffer
	buf.WriteString(delim)
	buf.Write(data)
	buf.WriteString(delim)
	return buf.Bytes(), nil
}

// Skeleton returns the initial content of a new note: header and heading.
func Skeleton(fm FrontMatter) ([]byte, error) {
	head, err := Render(fm)
	if err != nil {
		return nil, err
	}
	return append(head, fmt.Sprintf("\n# %s\n", fm.Title)...), nil
}

// Parse splits a document into its front matter and body. Documents without
// a header return a zero FrontMatter and the whole content as body.
func Parse(data []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	if !bytes.HasPrefix(data, []byte(delim)) {
		return fm, data, nil
	}
	rest := data[len(delim):]
	end := bytes.Index(rest, []byte("\n"+delim))
	if end < 0 {
		return fm, data, nil
	}
	if err := yaml.Unmarshal(rest[:end+1], &fm); err != nil {
		return fm, data, apperr.Wrap(apperr.ErrSerialization, "decode front matter", "", err)
	}
	return fm, rest[end+1+len(delim):], nil
}
