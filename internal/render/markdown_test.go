package render

import (
	"strings"
	"testing"
)

func TestHTMLHeadingsAndIDs(t *testing.T) {
	r := New()
	out, err := r.HTML("# Intake Process\n\nBody text.")
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "<h1") || !strings.Contains(s, "Intake Process") {
		t.Errorf("missing heading in output: %s", s)
	}
	if !strings.Contains(s, `id="intake-process"`) {
		t.Errorf("missing auto heading id in output: %s", s)
	}
}

func TestHTMLTables(t *testing.T) {
	r := New()
	out, err := r.HTML("| A | B |\n|---|---|\n| 1 | 2 |")
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	if !strings.Contains(string(out), "<table>") {
		t.Errorf("GFM table not rendered: %s", out)
	}
}

func TestHTMLRawHTMLPassthrough(t *testing.T) {
	r := New()
	out, err := r.HTML(`Before <img src="/api/v1/documents/7/images/fig1.png"> after`)
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	if !strings.Contains(string(out), `<img src="/api/v1/documents/7/images/fig1.png">`) {
		t.Errorf("raw img tag not preserved: %s", out)
	}
}
