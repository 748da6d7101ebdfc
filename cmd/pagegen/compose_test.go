package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestComposeCommand(t *testing.T) {
	dir := t.TempDir()
	toc := writeFile(t, dir, "toc.html", "<li>hablar</li>")
	sections := writeFile(t, dir, "sections.html", "<section>hablo</section>")
	out := filepath.Join(dir, "index.html")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"compose", "--toc", toc, "--sections", sections, "-o", out})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("compose: %v", err)
	}

	page, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	for _, want := range []string{"<li>hablar</li>", "<section>hablo</section>"} {
		if !strings.Contains(string(page), want) {
			t.Fatalf("output missing %q:\n%s", want, page)
		}
	}
	if strings.Contains(string(page), "{{CRITICAL_CSS}}") {
		t.Fatalf("critical CSS token left unresolved:\n%s", page)
	}
}

func TestComposeCommandCustomTemplateDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "min.html", "{{TOC_CONTENT}}|{{VERB_SECTIONS}}|{{CRITICAL_CSS}}")
	toc := writeFile(t, dir, "toc.html", "T")
	sections := writeFile(t, dir, "sections.html", "S")
	css := writeFile(t, dir, "crit.css", "C")

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"compose",
		"--toc", toc,
		"--sections", sections,
		"--css", css,
		"--template", "min",
		"--templates-dir", dir,
	})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "T|S|C" {
		t.Fatalf("stdout = %q, want %q", got, "T|S|C")
	}
}

func TestComposeCommandMissingFragment(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"compose", "--toc", "/does/not/exist", "--sections", "/also/missing"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for missing fragment files")
	}
}
