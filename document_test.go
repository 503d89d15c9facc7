package remlint

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"kr.dev/diff"
)

func TestReadDocument(t *testing.T) {
	texts := []string{
		"",
		"\n",
		"a",
		"a\n",
		"a\nb",
		"a\r\nb\r\n",
		"a\r\n\r\nb\n\n",
		"lone\rcarriage\r",
		"trailing\r\n\r",
	}
	for _, text := range texts {
		got, err := ReadDocument(iotest.OneByteReader(strings.NewReader(text)))
		if err != nil {
			t.Fatalf("ReadDocument(%q): %v", text, err)
		}
		want := NewDocument(text)
		diff.Test(t, t.Errorf, got, want)
		if got.LineCount != len(got.Lines) {
			t.Errorf("ReadDocument(%q): LineCount = %d, want %d", text, got.LineCount, len(got.Lines))
		}
	}
}

func TestReadDocumentError(t *testing.T) {
	_, err := ReadDocument(iotest.ErrReader(errors.New("boom")))
	if err == nil || err.Error() != "boom" {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestNewDocumentLines(t *testing.T) {
	doc := NewDocument("[task.a]\r\ncmd = \"x\"\n")
	diff.Test(t, t.Errorf, doc.Lines, []string{"[task.a]", `cmd = "x"`, ""})
	if doc.Text() != "[task.a]\ncmd = \"x\"\n" {
		t.Errorf("Text() = %q", doc.Text())
	}
}
