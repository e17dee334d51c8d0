package subtitle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
)

// Document is an opened subtitle file
type Document struct {
	Path   string
	Format Format
	Cues   []*Cue

	subs *astisub.Subtitles
}

// Cue is one subtitle item. It implements Event.
type Cue struct {
	item   *astisub.Item
	format Format
	text   string
}

var (
	ErrUnsupportedFormat = errors.New("unsupported subtitle format")
	ErrNotExist          = errors.New("subtitle file does not exist")
)

// Open reads a subtitle file, detecting the format from its extension
func Open(path string) (*Document, error) {
	format := FormatFromPath(path)
	if !format.Supported() {
		return nil, fmt.Errorf("%w %q: %s", ErrUnsupportedFormat, format, path)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
	}

	subs, err := astisub.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subtitle file %s: %w", path, err)
	}

	doc := newDocument(subs, format)
	doc.Path = path
	return doc, nil
}

// Read parses subtitle data of the given format from r
func Read(r io.Reader, format Format) (*Document, error) {
	var (
		subs *astisub.Subtitles
		err  error
	)
	switch format {
	case FormatSRT:
		subs, err = astisub.ReadFromSRT(r)
	case FormatASS, FormatSSA:
		subs, err = astisub.ReadFromSSA(r)
	case FormatWebVTT:
		subs, err = astisub.ReadFromWebVTT(r)
	default:
		return nil, fmt.Errorf("unsupported subtitle format for streaming read: %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s subtitles: %w", format, err)
	}
	return newDocument(subs, format), nil
}

func newDocument(subs *astisub.Subtitles, format Format) *Document {
	doc := &Document{
		Format: format,
		subs:   subs,
		Cues:   make([]*Cue, 0, len(subs.Items)),
	}
	for _, item := range subs.Items {
		doc.Cues = append(doc.Cues, &Cue{
			item:   item,
			format: format,
			text:   itemText(item),
		})
	}
	return doc
}

// Events returns the cues as Events, in file order
func (d *Document) Events() []Event {
	events := make([]Event, len(d.Cues))
	for i, c := range d.Cues {
		events[i] = c
	}
	return events
}

// Write writes the document to path. The output format follows the
// extension of path.
func (d *Document) Write(path string) error {
	if err := d.subs.Write(path); err != nil {
		return fmt.Errorf("failed to write subtitle file %s: %w", path, err)
	}
	return nil
}

// WriteTo writes the document to w in its own format
func (d *Document) WriteTo(w io.Writer) error {
	var err error
	switch d.Format {
	case FormatSRT:
		err = d.subs.WriteToSRT(w)
	case FormatASS, FormatSSA:
		err = d.subs.WriteToSSA(w)
	case FormatWebVTT:
		err = d.subs.WriteToWebVTT(w)
	default:
		return fmt.Errorf("unsupported subtitle format for streaming write: %q", d.Format)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s subtitles: %w", d.Format, err)
	}
	return nil
}

// itemText rebuilds the decorated text of an item. Override blocks that the
// parser split out of the text are put back in front of their run.
func itemText(item *astisub.Item) string {
	lines := make([]string, 0, len(item.Lines))
	for _, line := range item.Lines {
		var sb strings.Builder
		for _, li := range line.Items {
			if li.InlineStyle != nil {
				sb.WriteString(li.InlineStyle.SSAEffect)
			}
			sb.WriteString(li.Text)
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, LineBreak)
}

func (c *Cue) Text() string { return c.text }

// StartAt returns the cue start time
func (c *Cue) StartAt() time.Duration { return c.item.StartAt }

// EndAt returns the cue end time
func (c *Cue) EndAt() time.Duration { return c.item.EndAt }

// SetText replaces the cue lines with text. ASS and SSA cues keep the text
// as one run so LineBreak is written verbatim; other formats get one line per
// LineBreak and keep a style shared by every run of the original cue.
func (c *Cue) SetText(text string) {
	c.text = text

	var voice string
	if len(c.item.Lines) > 0 {
		voice = c.item.Lines[0].VoiceName
	}

	if c.format.IsSSA() {
		c.item.Lines = []astisub.Line{{
			VoiceName: voice,
			Items:     []astisub.LineItem{{Text: text}},
		}}
		return
	}

	style := sharedStyle(c.item)
	parts := strings.Split(text, LineBreak)
	lines := make([]astisub.Line, 0, len(parts))
	for _, part := range parts {
		lines = append(lines, astisub.Line{
			VoiceName: voice,
			Items:     []astisub.LineItem{{Text: part, InlineStyle: style}},
		})
	}
	c.item.Lines = lines
}

// sharedStyle returns the inline style every run of item carries, or nil
// when the runs differ.
func sharedStyle(item *astisub.Item) *astisub.StyleAttributes {
	var style *astisub.StyleAttributes
	first := true
	for _, line := range item.Lines {
		for _, li := range line.Items {
			if first {
				style = li.InlineStyle
				first = false
				continue
			}
			if !reflect.DeepEqual(style, li.InlineStyle) {
				return nil
			}
		}
	}
	return style
}
