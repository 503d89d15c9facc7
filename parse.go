package remlint

import (
	"fmt"
	"strings"
)

// Result is what [Parse] learns about a document in one pass.
type Result struct {
	// Parsed reports whether any line was recognized as a section
	// header or a key = value statement.
	Parsed bool

	// Tasks maps each registered task name to the line of its header.
	// TaskOrder lists the same names in declaration order.
	Tasks     map[string]int
	TaskOrder []string

	// Deps maps each registered task name to its declared dependencies,
	// which may contain ${...} placeholders.
	Deps map[string][]string

	// Vars maps each declared variable name to the line declaring it.
	// VarOrder lists the same names in declaration order.
	Vars     map[string]int
	VarOrder []string

	// Default is the default task name, or empty if none was set.
	// DefaultLine is the line that set it, or -1.
	Default     string
	DefaultLine int

	// Diagnostics holds the syntax and naming problems found while
	// scanning, in line order.
	Diagnostics []Diagnostic
}

// Keys accepted in a task block.
var taskFields = map[string]bool{
	"desc":    true,
	"deps":    true,
	"inputs":  true,
	"outputs": true,
	"cmd":     true,
	"cmds":    true,
	"dir":     true,
}

type sectionKind int

const (
	sectionRoot sectionKind = iota
	sectionVars
	sectionTask
)

// section is the block the parser is in. For task blocks, task is the
// name of the task that receives its deps, or empty once a duplicate
// header of that same task has been seen.
type section struct {
	kind sectionKind
	task string
}

// arrayState tracks an array value left open across lines.
type arrayState struct {
	open  bool
	depth int
}

type parser struct {
	doc     *Document
	section section
	array   arrayState
	res     Result
}

// Parse scans doc line by line, checking each header and statement
// and recording the declared tasks, dependencies, variables and default
// task. It does not check the task graph; see [Check].
func Parse(doc *Document) Result {
	p := &parser{
		doc: doc,
		res: Result{
			Tasks:       make(map[string]int),
			Deps:        make(map[string][]string),
			Vars:        make(map[string]int),
			DefaultLine: -1,
		},
	}
	for i, raw := range doc.Lines {
		p.parseLine(i, raw)
	}
	return p.res
}

func (p *parser) parseLine(i int, raw string) {
	line := strings.TrimSpace(StripComment(raw))
	if line == "" {
		return
	}

	if p.array.open {
		p.array.depth += BracketDelta(line)
		if p.array.depth <= 0 {
			p.array = arrayState{}
		}
		return
	}

	if name, ok := sectionHeader(line); ok {
		p.res.Parsed = true
		p.header(i, raw, name)
		return
	}

	key, value, ok := strings.Cut(line, "=")
	if !ok {
		p.errorf(i, raw, "invalid statement: expected key = value")
		return
	}
	p.res.Parsed = true
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	if strings.HasPrefix(value, "[") {
		if depth := BracketDelta(value); depth > 0 {
			p.array = arrayState{open: true, depth: depth}
		}
	}

	switch p.section.kind {
	case sectionRoot:
		p.rootStatement(i, raw, key, value)
	case sectionVars:
		p.varStatement(i, raw, key)
	case sectionTask:
		p.taskStatement(i, raw, key, value)
	}
}

// sectionHeader reports whether line is a "[name]" header and returns
// the trimmed name.
func sectionHeader(line string) (string, bool) {
	if len(line) < 3 || line[0] != '[' || line[len(line)-1] != ']' {
		return "", false
	}
	inner := line[1 : len(line)-1]
	if strings.Contains(inner, "]") {
		return "", false
	}
	return strings.TrimSpace(inner), true
}

func (p *parser) header(i int, raw, name string) {
	switch {
	case name == "vars":
		p.section = section{kind: sectionVars}
	case strings.HasPrefix(name, "task."):
		task := strings.TrimSpace(strings.TrimPrefix(name, "task."))
		// A rejected header leaves the parser in the block it was in.
		if !IsTaskName(task) {
			p.errorf(i, raw, `invalid task name "%s"`, task)
			return
		}
		if _, dup := p.res.Tasks[task]; dup {
			p.errorf(i, raw, `duplicate task "%s"`, task)
			if p.section.kind == sectionTask && p.section.task == task {
				p.section.task = ""
			}
			return
		}
		p.res.Tasks[task] = i
		p.res.TaskOrder = append(p.res.TaskOrder, task)
		p.res.Deps[task] = []string{}
		p.section = section{kind: sectionTask, task: task}
	default:
		p.errorf(i, raw, `unsupported section "%s"`, name)
	}
}

func (p *parser) rootStatement(i int, raw, key, value string) {
	if key != "default" {
		p.errorf(i, raw, `unsupported top-level key "%s"`, key)
		return
	}
	p.res.Default = strings.TrimSpace(Unquote(value))
	p.res.DefaultLine = i
	if p.res.Default == "" {
		p.errorf(i, raw, "default target name is missing")
	}
}

func (p *parser) varStatement(i int, raw, key string) {
	switch _, dup := p.res.Vars[key]; {
	case !IsVarName(key):
		p.errorf(i, raw, `invalid var name "%s"`, key)
	case dup:
		p.errorf(i, raw, `duplicate var "%s"`, key)
	default:
		p.res.Vars[key] = i
		p.res.VarOrder = append(p.res.VarOrder, key)
	}
}

func (p *parser) taskStatement(i int, raw, key, value string) {
	if !taskFields[key] {
		p.errorf(i, raw, `unknown task field "%s"`, key)
		return
	}
	switch key {
	case "deps":
		if p.section.task != "" {
			p.res.Deps[p.section.task] = ParseList(value)
		}
	case "cmd", "cmds":
		if value == "" {
			p.errorf(i, raw, "empty command value")
		}
	}
}

// errorf records a diagnostic spanning the raw line i.
func (p *parser) errorf(i int, raw, format string, args ...any) {
	d := NewDiagnostic(p.doc, i, utf16Len(raw), fmt.Sprintf(format, args...))
	p.res.Diagnostics = append(p.res.Diagnostics, d)
}
