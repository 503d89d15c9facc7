package remlint

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"kr.dev/diff"
)

// summarize formats diagnostics as "line: message".
func summarize(diags []Diagnostic) []string {
	var out []string
	for _, d := range diags {
		out = append(out, fmt.Sprintf("%d: %s", d.StartLine, d.Message))
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty",
			text: "",
		},
		{
			name: "only comments",
			text: "# nothing here\n\n   # still nothing\n",
		},
		{
			name: "single task",
			text: "[task.build]\ncmd = \"echo hi\"\n",
		},
		{
			name: "starter",
			text: starter,
		},
		{
			name: "comments and quoted hashes",
			text: "[task.t] # the task\ncmd = \"echo #1\" # run it\ndesc = 'issue #2'\n",
		},
		{
			name: "quoted brackets do not open an array",
			text: "[task.t]\ncmds = [\"echo [\", \"x\"]\ncmd = \"y\"\n",
		},
		{
			name: "multi-line array",
			text: "[task.a]\noutputs = [\n  \"a.o\",\n  \"b.o\"\n]\ncmd = \"cc\"\n",
		},
		{
			name: "nested multi-line array",
			text: "[task.a]\ncmds = [\n  [\"x\",\n  \"y\"],\n]\nbogus\n",
			want: []string{"5: invalid statement: expected key = value"},
		},
		{
			name: "unterminated array swallows the rest",
			text: "[task.t]\ncmds = [\n\"a\"\nnot a statement\n",
		},
		{
			name: "missing equals",
			text: "[task.a]\nthis is wrong\n",
			want: []string{"1: invalid statement: expected key = value"},
		},
		{
			name: "array of tables",
			text: "[[task.a]]\n[task.b]\n",
			want: []string{"0: invalid statement: expected key = value"},
		},
		{
			name: "unsupported section",
			text: "[tasks]\n[task.a]\n",
			want: []string{`0: unsupported section "tasks"`},
		},
		{
			name: "blank section",
			text: "[ ]\n[task.a]\n",
			want: []string{`0: unsupported section ""`},
		},
		{
			name: "unsupported section keeps the current block",
			text: "[task.a]\n[nope]\ndeps = [zzz]\n",
			want: []string{
				`1: unsupported section "nope"`,
				`0: task "a" depends on undefined task "zzz"`,
			},
		},
		{
			name: "invalid task name",
			text: "[task.bad name]\n[task.ok]\n",
			want: []string{`0: invalid task name "bad name"`},
		},
		{
			name: "non-ASCII task name",
			text: "[task.é]\n[task.ok]\n",
			want: []string{`0: invalid task name "é"`},
		},
		{
			name: "whitespace around header name",
			text: "[  task.build  ]\ncmd = \"go build\"\n",
		},
		{
			name: "duplicate task keeps the current block",
			text: "[task.a]\ndeps = [b]\n[task.b]\n[task.a]\ndeps = [c]\n",
			want: []string{
				`3: duplicate task "a"`,
				`2: task "b" depends on undefined task "c"`,
			},
		},
		{
			name: "duplicate of the current task",
			text: "[task.a]\ndeps = [b]\n[task.b]\n[task.b]\ndeps = [zzz]\nrun = \"x\"\n",
			want: []string{
				`3: duplicate task "b"`,
				`5: unknown task field "run"`,
			},
		},
		{
			name: "invalid task name inside vars",
			text: "[vars]\nX = \"1\"\n[task.bad name]\nY = \"2\"\n[task.ok]\n",
			want: []string{`2: invalid task name "bad name"`},
		},
		{
			name: "invalid task name at root",
			text: "[task.bad name]\ncmd = \"x\"\n[task.ok]\n",
			want: []string{
				`0: invalid task name "bad name"`,
				`1: unsupported top-level key "cmd"`,
			},
		},
		{
			name: "invalid task name after a task",
			text: "[task.b]\n[task.bad name]\ndeps = [zzz]\n",
			want: []string{
				`1: invalid task name "bad name"`,
				`0: task "b" depends on undefined task "zzz"`,
			},
		},
		{
			name: "quoted key is reported verbatim",
			text: "\"k\" = 1\n[task.t]\n",
			want: []string{`0: unsupported top-level key ""k""`},
		},
		{
			name: "control characters are reported verbatim",
			text: "[vars]\nA\tB = 1\n[task.t]\n",
			want: []string{"1: invalid var name \"A\tB\""},
		},
		{
			name: "no tasks",
			text: "default = \"build\"\n",
			want: []string{"0: Remfile has no tasks"},
		},
		{
			name: "vars only",
			text: "[vars]\nA = \"1\"\n",
			want: []string{"0: Remfile has no tasks"},
		},
		{
			name: "missing default task",
			text: "default = \"release\"\n\n[task.build]\ncmd = \"go build\"\n",
			want: []string{`0: default target "release" does not match any defined task`},
		},
		{
			name: "default task declared later",
			text: "default = \"release\"\n\n[task.build]\n\n[task.release]\ndeps = [\"build\"]\n",
		},
		{
			name: "empty default",
			text: "default =\n[task.t]\n",
			want: []string{"0: default target name is missing"},
		},
		{
			name: "empty quoted default",
			text: "default = ''\n[task.t]\n",
			want: []string{"0: default target name is missing"},
		},
		{
			name: "unsupported top-level key",
			text: "name = \"x\"\n[task.t]\n",
			want: []string{`0: unsupported top-level key "name"`},
		},
		{
			name: "vars",
			text: "[vars]\nA = \"1\"\nA = \"2\"\n1B = \"3\"\nB-C = \"4\"\n_D = \"5\"\n[task.t]\n",
			want: []string{
				`2: duplicate var "A"`,
				`3: invalid var name "1B"`,
				`4: invalid var name "B-C"`,
			},
		},
		{
			name: "keys after vars belong to vars",
			text: "[task.t]\n[vars]\ncmd = \"x\"\n",
		},
		{
			name: "unknown task field",
			text: "[task.t]\nrun = \"x\"\n",
			want: []string{`1: unknown task field "run"`},
		},
		{
			name: "empty commands",
			text: "[task.t]\ncmd =\ncmds =\ncmd = \"\"\n",
			want: []string{
				"1: empty command value",
				"2: empty command value",
			},
		},
		{
			name: "undefined dependency",
			text: "[task.a]\n[task.x]\ndeps = [a, \"${VERSION}\", missing]\n",
			want: []string{`1: task "x" depends on undefined task "missing"`},
		},
		{
			name: "scalar dependencies",
			text: "[task.t]\ndeps = \"${X} other\"\n",
			want: []string{`0: task "t" depends on undefined task "other"`},
		},
		{
			name: "last deps wins",
			text: "[task.t]\ndeps = [nope]\ndeps = []\n",
		},
		{
			name: "multi-line deps are not checked",
			text: "[task.t]\ndeps = [\n  \"nope\",\n]\n",
		},
		{
			name: "dependency order",
			text: "[task.b]\ndeps = [y, x]\n[task.a]\ndeps = [z]\n",
			want: []string{
				`0: task "b" depends on undefined task "y"`,
				`0: task "b" depends on undefined task "x"`,
				`2: task "a" depends on undefined task "z"`,
			},
		},
		{
			name: "syntax problems come before graph problems",
			text: "default = \"nope\"\n[task.t]\ndeps = [gone]\noops\n",
			want: []string{
				"3: invalid statement: expected key = value",
				`0: default target "nope" does not match any defined task`,
				`1: task "t" depends on undefined task "gone"`,
			},
		},
		{
			name: "CRLF",
			text: "[task.t]\r\nbogus\r\n",
			want: []string{"1: invalid statement: expected key = value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarize(ValidateText(tt.text))
			diff.Test(t, t.Errorf, got, tt.want)
		})
	}
}

func TestValidateRanges(t *testing.T) {
	doc := NewDocument("default = \"gone\"\n[task.t]  \r\ndeps = [x]\nbogus 😀\n")
	got := Validate(doc)
	want := []Diagnostic{
		{StartLine: 3, EndLine: 3, EndColumn: 8, Message: "invalid statement: expected key = value", Severity: SeverityWarning},
		{StartLine: 0, EndLine: 0, EndColumn: 0, Message: `default target "gone" does not match any defined task`, Severity: SeverityWarning},
		{StartLine: 1, EndLine: 1, EndColumn: 10, Message: `task "t" depends on undefined task "x"`, Severity: SeverityWarning},
	}
	diff.Test(t, t.Errorf, got, want)
}

func TestValidateIdempotent(t *testing.T) {
	broken := "default = \"release\"\n[task.build]\ncmd = \"go build\"\n"
	first := Validate(NewDocument(broken))
	second := Validate(NewDocument(broken))
	diff.Test(t, t.Errorf, second, first)
	if len(first) != 1 || !strings.Contains(first[0].Message, `"release"`) {
		t.Fatalf("diagnostics = %v, want one naming \"release\"", first)
	}

	fixed := broken + "\n[task.release]\ndeps = [\"build\"]\n"
	if diags := ValidateText(fixed); len(diags) != 0 {
		t.Errorf("fixed document: diagnostics = %v, want none", diags)
	}
}

func TestParseDuplicateKeepsFirst(t *testing.T) {
	r := Parse(NewDocument("[task.a]\ndeps = [b]\n[task.b]\n[task.a]\ndeps = [c]\n"))
	if got := r.Tasks["a"]; got != 0 {
		t.Errorf("Tasks[a] = %d, want 0", got)
	}
	if got := r.Deps["a"]; !slices.Equal(got, []string{"b"}) {
		t.Errorf("Deps[a] = %q, want [b]", got)
	}
	diff.Test(t, t.Errorf, r.TaskOrder, []string{"a", "b"})

	r = Parse(NewDocument("[task.a]\ndeps = [b]\n[task.a]\ndeps = [c]\n"))
	if got := r.Deps["a"]; !slices.Equal(got, []string{"b"}) {
		t.Errorf("after duplicate of the current task, Deps[a] = %q, want [b]", got)
	}
}

func TestParseResult(t *testing.T) {
	r := Parse(NewDocument(starter))
	if !r.Parsed {
		t.Fatal("Parsed = false")
	}
	diff.Test(t, t.Errorf, r.TaskOrder, []string{"gen", "build", "test", "release"})
	diff.Test(t, t.Errorf, r.VarOrder, []string{"APP_NAME", "VERSION"})
	diff.Test(t, t.Errorf, r.Deps["release"], []string{"build", "test", "${EXTRA}"})
	if r.Default != "build" || r.DefaultLine != 0 {
		t.Errorf("Default = %q at %d, want build at 0", r.Default, r.DefaultLine)
	}
	if r.Tasks["gen"] != 6 {
		t.Errorf("Tasks[gen] = %d, want 6", r.Tasks["gen"])
	}
}

func TestParseNothing(t *testing.T) {
	r := Parse(NewDocument("\n  # comment\n"))
	if r.Parsed {
		t.Error("Parsed = true for a comment-only document")
	}
	if got := Check(NewDocument(""), r); len(got) != 0 {
		t.Errorf("Check = %v, want none", got)
	}
}

func TestNewDiagnosticClamps(t *testing.T) {
	tests := []struct {
		lineCount, line, length int
		wantLine, wantEnd       int
	}{
		{3, 1, 4, 1, 4},
		{3, 7, 4, 2, 4},
		{3, -2, 4, 0, 4},
		{3, 1, -5, 1, 0},
		{0, 5, 2, 0, 2},
	}
	for _, tt := range tests {
		doc := &Document{LineCount: tt.lineCount}
		d := NewDiagnostic(doc, tt.line, tt.length, "m")
		if d.StartLine != tt.wantLine || d.EndLine != tt.wantLine || d.EndColumn != tt.wantEnd || d.StartColumn != 0 {
			t.Errorf("NewDiagnostic(%d lines, %d, %d) = %+v, want line %d end %d",
				tt.lineCount, tt.line, tt.length, d, tt.wantLine, tt.wantEnd)
		}
	}
}

func TestDiagnosticString(t *testing.T) {
	d := NewDiagnostic(NewDocument("a\nb\n"), 1, 1, "bad")
	if got, want := d.String(), "2:1: warning: bad"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func FuzzValidate(f *testing.F) {
	f.Add(starter)
	f.Add("[task.a]\ndeps = [\n\"b\"\n]\n[task.a]\n")
	f.Add("default = 'x'\n[vars]\n1 = 2\n[task.\"q\"]\n")
	f.Fuzz(func(t *testing.T, text string) {
		doc := NewDocument(text)
		diags := Validate(doc)
		for _, d := range diags {
			if d.StartLine < 0 || d.StartLine >= max(1, doc.LineCount) {
				t.Errorf("line %d out of range for %d lines", d.StartLine, doc.LineCount)
			}
			if d.EndLine != d.StartLine || d.StartColumn != 0 || d.EndColumn < 0 {
				t.Errorf("bad range: %+v", d)
			}
			if d.Severity != SeverityWarning {
				t.Errorf("severity = %v", d.Severity)
			}
		}
		diff.Test(t, t.Errorf, Validate(doc), diags)
	})
}

const starter = `default = "build"

[vars]
APP_NAME = "rem"
VERSION = "${VERSION:-dev}" # from the environment

[task.gen]
desc = "Generate files"
cmds = ["go generate ./..."]

[task.build]
desc = "Build binary"
deps = ["gen"]
inputs = ["cmd/rem/main.go", "internal/*/*.go", "go.mod"]
outputs = ["bin/${APP_NAME}"]
cmds = [
  "mkdir -p bin",
  "go build -ldflags \"-X main.version=${VERSION}\" -o bin/${APP_NAME} ./cmd/rem",
]

[task.test]
cmds = ["go test ./..."]

[task.release]
desc = "Release #1"
deps = ["build", "test", "${EXTRA}"]
dir = 'dist'
`
