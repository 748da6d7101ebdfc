// Package pagegen composes the verb site's pages: it merges generated HTML
// fragments into named base templates via literal {{NAME}} placeholder
// substitution. The root package re-exports the composer for callers that
// only need the simple entry points; pkg/compose holds the implementation.
package pagegen

import (
	"context"
	"io/fs"

	"github.com/verbatlas/pagegen/pkg/compose"
)

// Composer loads templates and splices fragments into placeholder tokens.
type Composer = compose.Composer

// Option customises a Composer.
type Option = compose.Option

// StandardOption adjusts a single ComposeStandard call.
type StandardOption = compose.StandardOption

// Cache is the opt-in read-through template cache.
type Cache = compose.Cache

// ErrTemplateNotFound is returned when a named template does not exist.
var ErrTemplateNotFound = compose.ErrTemplateNotFound

// New constructs a Composer. See pkg/compose for the available options.
func New(options ...Option) *Composer {
	return compose.New(options...)
}

// ComposeStandard fills the site's fixed placeholders in the named template
// (default base) using a one-off Composer. It is the simplest entry point
// for callers that just want a page.
func ComposeStandard(ctx context.Context, toc, sections string, options ...Option) (string, error) {
	return compose.New(options...).ComposeStandard(ctx, toc, sections)
}

// ComposeCustom substitutes an arbitrary placeholder mapping into the named
// template using a one-off Composer.
func ComposeCustom(ctx context.Context, templateName string, placeholders map[string]string, options ...Option) (string, error) {
	return compose.New(options...).ComposeCustom(ctx, templateName, placeholders)
}

// EmbeddedTemplates exposes the built-in template bundle so callers can
// reuse or extend it without importing the compose package directly.
func EmbeddedTemplates() fs.FS {
	return compose.TemplatesFS()
}
