// Package remlint checks Remfiles and reports problems as diagnostics.
//
// A Remfile is a small, TOML-flavored file that declares build tasks:
//
//	default = "build"
//
//	[vars]
//	APP_NAME = "rem"
//
//	[task.gen]
//	cmds = ["go generate ./..."]
//
//	[task.build]
//	desc = "Build binary"
//	deps = ["gen"]
//	outputs = ["bin/${APP_NAME}"]
//	cmds = [
//	  "mkdir -p bin",
//	  "go build -o bin/${APP_NAME} ./cmd/rem",
//	]
//
// # Syntax
//
// The grammar, line by line:
//
//	file      = { line } .
//	line      = [ header | statement | continued ] [ comment ] newline .
//	header    = "[" name "]" .
//	statement = key "=" value .
//	comment   = "#" text .
//	continued = (* any line inside an array value left open by a "[" *) .
//
// A "#" starts a comment unless it appears inside a quoted string.
// Double-quoted strings honor backslash escapes; single-quoted strings do not.
//
// The only headers are [vars] and [task.NAME]. Task names use letters,
// digits, '_', '.' and '-'. Variable names are identifiers.
// Statements before the first header may only set "default".
// Task blocks accept the fields desc, deps, inputs, outputs, cmd, cmds and dir.
//
// Lists are written either as arrays or as bare strings:
//
//	deps = ["gen", "lint"]
//	deps = "gen lint"
//
// # Diagnostics
//
// [Validate] never fails. Every problem it finds is reported as a [Diagnostic]
// anchored to one line of the document, and malformed lines are checked on a
// best-effort basis instead of aborting the pass. After the document has been
// scanned, the task graph is checked: at least one task must exist, the
// default task must be declared, and every dependency must name a declared
// task. Dependencies containing a ${...} placeholder are resolved elsewhere
// and are not checked.
//
// Each call is independent. Callers should replace, not merge, the
// diagnostics from a previous call for the same document.
package remlint

// Validate scans doc and returns every problem found in it, syntax problems
// first, in line order, followed by problems with the task graph.
func Validate(doc *Document) []Diagnostic {
	r := Parse(doc)
	diags := make([]Diagnostic, 0, len(r.Diagnostics))
	diags = append(diags, r.Diagnostics...)
	return append(diags, Check(doc, r)...)
}

// ValidateText is like [Validate] but takes the document's text.
func ValidateText(text string) []Diagnostic {
	return Validate(NewDocument(text))
}
