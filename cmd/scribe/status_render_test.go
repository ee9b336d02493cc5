package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("uvx", statusOK, "/usr/bin/uvx", false)
	if !strings.Contains(line, "uvx:") || !strings.Contains(line, "[OK] /usr/bin/uvx") {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("uvx", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
}

func TestCheckKind(t *testing.T) {
	if checkKind(true, false) != statusOK || checkKind(false, true) != statusWarn || checkKind(false, false) != statusError {
		t.Fatal("unexpected check severity mapping")
	}
}

func TestWriteSection(t *testing.T) {
	var buf bytes.Buffer
	writeSection(&buf, "Cache", false, []string{"a", "b"})
	want := "== Cache ==\n-----------\na\nb\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}
