package export

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
)

const deck = `---
marp: true
---

## Table of Contents
1. Essence of Business Idea

---

# Essence of Business Idea
- Subscription robots
  - monthly plan
- Field service

| Year | Revenue |
|---|---|
| 2026 | 10M |
`

func documentXML(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("expected a zip container: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open document.xml: %v", err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read document.xml: %v", err)
		}
		return string(b)
	}
	t.Fatal("expected word/document.xml in archive")
	return ""
}

func TestWriteDOCX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDOCX(&buf, deck); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("PK")) {
		t.Fatal("expected zip magic")
	}

	xml := documentXML(t, buf.Bytes())
	for _, want := range []string{
		"Table of Contents",
		"Essence of Business Idea",
		"• Subscription robots",
		"    • monthly plan",
		"2026 | 10M",
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("expected document to contain %q", want)
		}
	}
	if strings.Contains(xml, "marp: true") {
		t.Error("expected front matter to be dropped")
	}
}

func TestHeadingLevel(t *testing.T) {
	cases := map[string]int{"h1": 1, "h6": 6, "h7": 0, "p": 0, "hr": 0}
	for tag, want := range cases {
		if got := headingLevel(tag); got != want {
			t.Errorf("headingLevel(%q): expected %d, got %d", tag, want, got)
		}
	}
}
