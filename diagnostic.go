package remlint

import "fmt"

// Severity is the severity of a [Diagnostic]. Its numeric values match
// the Language Server Protocol's DiagnosticSeverity.
type Severity int

// Every diagnostic is currently a warning.
const SeverityWarning Severity = 2

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Diagnostic describes one problem in a [Document].
//
// Lines and columns are 0-indexed. Columns count UTF-16 code units, as
// editors do. A diagnostic covers a single line: it starts at column 0
// and ends at the end of the offending line, or at column 0 for problems
// with the document as a whole.
type Diagnostic struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
	Message     string
	Severity    Severity
}

// String formats d as "line:column: severity: message"
// with a 1-indexed line and column.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.StartLine+1, d.StartColumn+1, d.Severity, d.Message)
}

// NewDiagnostic returns a warning covering the first length columns of
// line in doc. The line is clamped to the document's line count and a
// negative length is treated as zero.
func NewDiagnostic(doc *Document, line, length int, message string) Diagnostic {
	line = max(0, min(line, doc.LineCount-1))
	return Diagnostic{
		StartLine: line,
		EndLine:   line,
		EndColumn: max(0, length),
		Message:   message,
		Severity:  SeverityWarning,
	}
}

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
