package remlint

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Task is a task declared in a Remfile.
type Task struct {
	Name    string
	Desc    string
	Deps    []string
	Inputs  []string
	Outputs []string
	Cmds    []string
	Dir     string
}

// File is a decoded Remfile.
type File struct {
	// Path and Dir are the absolute path of the file and its directory.
	// They are empty for files read by [Decode].
	Path string
	Dir  string

	// Default is the task to run when none is named. If the file does
	// not set one, it is the first declared task.
	Default string

	// Vars holds the raw, unexpanded variable values.
	Vars     map[string]string
	VarOrder []string

	Tasks map[string]*Task
	Order []string
}

// SyntaxError is a TOML syntax error in a Remfile that otherwise
// passed [Validate].
type SyntaxError struct {
	Line    int    // line number (1-indexed)
	Message string // error message without line prefix
	Err     error  // underlying error, if any
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d: %s", e.Line, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// ValidationError reports the diagnostics that stopped a Remfile from
// being decoded.
type ValidationError struct {
	Diagnostics []Diagnostic
}

func (e *ValidationError) Error() string {
	msg := e.Diagnostics[0].String()
	if n := len(e.Diagnostics) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

// ErrNoTasks is returned by [Decode] for a Remfile without any headers or
// statements.
var ErrNoTasks = errors.New("Remfile has no tasks")

// Load reads and decodes the Remfile at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rf, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	rf.Path = abs
	rf.Dir = filepath.Dir(abs)
	return rf, nil
}

// Decode reads a Remfile from r.
//
// Decoding is stricter than [Validate]: the file must produce no
// diagnostics, in which case a [*ValidationError] is returned, and every
// value must also be valid TOML, or a [*SyntaxError] is returned.
// Variables are not expanded.
func Decode(r io.Reader) (*File, error) {
	doc, err := ReadDocument(r)
	if err != nil {
		return nil, err
	}
	res := Parse(doc)
	if diags := append(res.Diagnostics, Check(doc, res)...); len(diags) > 0 {
		return nil, &ValidationError{Diagnostics: diags}
	}
	if len(res.TaskOrder) == 0 {
		return nil, ErrNoTasks
	}

	var tree map[string]any
	md, err := toml.Decode(doc.Text(), &tree)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, &SyntaxError{Line: perr.Position.Line, Message: perr.Message, Err: err}
		}
		return nil, err
	}

	rf := &File{
		Vars:  make(map[string]string),
		Tasks: make(map[string]*Task, len(res.TaskOrder)),
		Order: res.TaskOrder,
	}
	for _, name := range res.TaskOrder {
		rf.Tasks[name] = &Task{Name: name}
	}

	// Keys are visited in file order so that cmd and cmds append in the
	// order they were written.
	for _, key := range md.Keys() {
		v := lookup(tree, key)
		if _, isTable := v.(map[string]any); isTable {
			continue
		}
		switch {
		case len(key) == 1 && key[0] == "default":
			s, err := asString(v)
			if err != nil {
				return nil, fmt.Errorf("default: %w", err)
			}
			rf.Default = s
		case len(key) == 2 && key[0] == "vars":
			s, err := asString(v)
			if err != nil {
				return nil, fmt.Errorf("var %q: %w", key[1], err)
			}
			rf.Vars[key[1]] = s
			rf.VarOrder = append(rf.VarOrder, key[1])
		case len(key) >= 3 && key[0] == "task":
			// Task names may contain dots, which TOML reads as nested tables.
			name := strings.Join(key[1:len(key)-1], ".")
			t, ok := rf.Tasks[name]
			if !ok {
				return nil, fmt.Errorf("key %q: not in a declared task", key.String())
			}
			if err := t.set(key[len(key)-1], v); err != nil {
				return nil, fmt.Errorf("task %q %s: %w", name, key[len(key)-1], err)
			}
		default:
			return nil, fmt.Errorf("unexpected key %q", key.String())
		}
	}

	if rf.Default == "" {
		rf.Default = rf.Order[0]
	}
	return rf, nil
}

func (t *Task) set(field string, v any) error {
	var err error
	switch field {
	case "desc":
		t.Desc, err = asString(v)
	case "dir":
		t.Dir, err = asString(v)
	case "deps":
		t.Deps, err = appendList(t.Deps, v)
	case "inputs":
		t.Inputs, err = appendList(t.Inputs, v)
	case "outputs":
		t.Outputs, err = appendList(t.Outputs, v)
	case "cmd":
		var cmd string
		if cmd, err = asString(v); err == nil && cmd != "" {
			t.Cmds = append(t.Cmds, cmd)
		}
	case "cmds":
		t.Cmds, err = appendStrings(t.Cmds, v)
	default:
		err = errors.New("unknown task field")
	}
	return err
}

// lookup returns the value at key in tree, or nil.
func lookup(tree map[string]any, key toml.Key) any {
	var v any = tree
	for _, k := range key {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

// appendList appends the items of a list value, which may be an array of
// strings or a single string of whitespace- or comma-separated items.
func appendList(dst []string, v any) ([]string, error) {
	if s, ok := v.(string); ok {
		return append(dst, splitList(s)...), nil
	}
	return appendStrings(dst, v)
}

// appendStrings appends the strings of an array value, skipping blank ones.
func appendStrings(dst []string, v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return dst, fmt.Errorf("expected array, got %T", v)
	}
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return dst, fmt.Errorf("expected string array item, got %T", item)
		}
		if strings.TrimSpace(s) != "" {
			dst = append(dst, s)
		}
	}
	return dst, nil
}
