package pagegen

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/verbatlas/pagegen/pkg/compose"
)

func TestComposeStandardWithEmbeddedBase(t *testing.T) {
	got, err := ComposeStandard(context.Background(), "<li>ser</li>", "<section>soy</section>")
	if err != nil {
		t.Fatalf("ComposeStandard: %v", err)
	}
	if !strings.Contains(got, "<li>ser</li>") || !strings.Contains(got, "<section>soy</section>") {
		t.Fatalf("fragments missing from composed page:\n%s", got)
	}
}

func TestComposeCustom(t *testing.T) {
	fsys := fstest.MapFS{
		"card.html": &fstest.MapFile{Data: []byte("<div>{{TITLE}}</div>")},
	}

	got, err := ComposeCustom(context.Background(), "card", map[string]string{"TITLE": "Verbos"},
		compose.WithTemplatesFS(fsys))
	if err != nil {
		t.Fatalf("ComposeCustom: %v", err)
	}
	if got != "<div>Verbos</div>" {
		t.Fatalf("ComposeCustom = %q", got)
	}
}

func TestErrTemplateNotFoundAlias(t *testing.T) {
	_, err := New().Load(context.Background(), "missing.html")
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}
