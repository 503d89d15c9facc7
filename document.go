package remlint

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Document is a snapshot of a Remfile's text split into physical lines.
type Document struct {
	// Lines holds each physical line without its line terminator.
	Lines []string

	// LineCount is the number of lines the document has as far as the
	// caller is concerned. Diagnostics are clamped to [0, LineCount-1].
	LineCount int
}

// NewDocument splits text on LF and CRLF line endings.
// A final line terminator yields a final empty line.
func NewDocument(text string) *Document {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	return &Document{Lines: lines, LineCount: len(lines)}
}

// ReadDocument reads r to the end and splits it into lines
// the same way as [NewDocument].
func ReadDocument(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if err == nil {
			line = strings.TrimSuffix(line, "\n")
			lines = append(lines, strings.TrimSuffix(line, "\r"))
			continue
		}
		if !errors.Is(err, io.EOF) {
			return nil, err
		}
		// The text after the last newline is a line of its own,
		// even when empty.
		lines = append(lines, line)
		break
	}
	return &Document{Lines: lines, LineCount: len(lines)}, nil
}

// Text joins the document's lines with LF.
func (d *Document) Text() string {
	return strings.Join(d.Lines, "\n")
}

// lineLength returns the length of line i in UTF-16 code units,
// or 0 if there is no such line.
func (d *Document) lineLength(i int) int {
	if i < 0 || i >= len(d.Lines) {
		return 0
	}
	return utf16Len(d.Lines[i])
}
