package compose

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/verbatlas/pagegen/internal/templatestore"
)

// DefaultTemplateName is the template used when a caller does not name one.
// It resolves to base.html under the templates root.
const DefaultTemplateName = "base"

// Placeholder names recognised by ComposeStandard. The on-page tokens are the
// names wrapped in double braces, e.g. {{TOC_CONTENT}}.
const (
	PlaceholderTOC         = "TOC_CONTENT"
	PlaceholderSections    = "VERB_SECTIONS"
	PlaceholderCriticalCSS = "CRITICAL_CSS"
)

// Token returns the literal placeholder token for a name: {{NAME}}.
func Token(name string) string {
	return "{{" + name + "}}"
}

// Store resolves template names to raw template bytes. Missing templates
// must surface as errors matching fs.ErrNotExist.
type Store interface {
	ReadTemplate(ctx context.Context, name string) ([]byte, error)

	// Path reports the resolved filesystem path for a name, when the store
	// is disk-backed. Cache keys and watch-based invalidation use it.
	Path(name string) (string, bool)
}

// Option customises a Composer.
type Option func(*Composer)

// WithStore injects a custom template store.
func WithStore(store Store) Option {
	return func(c *Composer) {
		c.store = store
	}
}

// WithTemplatesDir points the composer at a templates directory on disk.
func WithTemplatesDir(dir string) Option {
	return func(c *Composer) {
		c.store = templatestore.NewDir(dir)
	}
}

// WithTemplatesFS points the composer at an fs.FS, typically an embedded
// bundle.
func WithTemplatesFS(fsys fs.FS) Option {
	return func(c *Composer) {
		c.store = templatestore.NewFS(fsys)
	}
}

// WithDefaultTemplate overrides the template used when a request omits one.
func WithDefaultTemplate(name string) Option {
	return func(c *Composer) {
		if name != "" {
			c.defaultTemplate = name
		}
	}
}

// WithLogger attaches a logger. Load and composition failures are logged at
// the point of detection before being returned.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSanitizer runs every replacement fragment through the policy before
// substitution. Off by default: the composer contract is verbatim insertion,
// and sanitization is an opt-in for callers splicing untrusted fragments.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(c *Composer) {
		c.sanitizer = policy
	}
}

// WithCache enables read-through caching of loaded template text. Without it
// every composition reads the template fresh from the store.
func WithCache(cache *Cache) Option {
	return func(c *Composer) {
		c.cache = cache
	}
}

// Composer loads named templates and splices fragments into their
// placeholder tokens. Each call is self-contained; a single Composer is safe
// for concurrent use.
type Composer struct {
	store           Store
	cache           *Cache
	sanitizer       *bluemonday.Policy
	logger          *zap.Logger
	defaultTemplate string
}

// New constructs a Composer. Without options it serves the embedded template
// bundle with the default base template.
func New(options ...Option) *Composer {
	c := &Composer{
		defaultTemplate: DefaultTemplateName,
		logger:          zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.store == nil {
		c.store = templatestore.NewFS(TemplatesFS())
	}
	return c
}

// Load resolves a template by name and returns its full text. Names without
// an extension resolve to name.html under the store root. A missing template
// returns an error matching ErrTemplateNotFound; any other read failure is
// wrapped and propagated.
func (c *Composer) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resolved, err := c.resolveName(name)
	if err != nil {
		c.logger.Error("template name rejected", zap.String("template", name), zap.Error(err))
		return "", err
	}

	key, keyed := c.cacheKey(resolved)
	if c.cache != nil && keyed {
		if text, ok := c.cache.get(key); ok {
			return text, nil
		}
	}

	data, err := c.store.ReadTemplate(ctx, resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Error("template not found", zap.String("template", resolved))
			return "", fmt.Errorf("compose: template %q: %w", resolved, ErrTemplateNotFound)
		}
		c.logger.Error("template read failed", zap.String("template", resolved), zap.Error(err))
		return "", fmt.Errorf("compose: read template %q: %w", resolved, err)
	}

	text := string(data)
	if c.cache != nil && keyed {
		c.cache.put(key, text)
	}
	return text, nil
}

// ComposeStandard loads the named template (default base) and fills the
// site's three fixed placeholders: table of contents, verb sections, and
// critical CSS. The CSS replacement defaults to the empty string, so the
// token is removed rather than left dangling.
func (c *Composer) ComposeStandard(ctx context.Context, toc, sections string, options ...StandardOption) (string, error) {
	req := standardRequest{template: c.defaultTemplate}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&req)
	}

	text, err := c.Load(ctx, req.template)
	if err != nil {
		return "", err
	}

	// Fixed substitution sequence; each token is replaced everywhere it
	// occurs in a single pass, with no recursive expansion of the result.
	text = c.substitute(text, PlaceholderTOC, toc)
	text = c.substitute(text, PlaceholderSections, sections)
	text = c.substitute(text, PlaceholderCriticalCSS, req.criticalCSS)
	return text, nil
}

// ComposeCustom loads the named template and replaces every occurrence of
// {{KEY}} for each entry in placeholders. Tokens absent from the mapping
// survive literally. Map iteration order is unspecified; results are only
// well defined when no replacement value contains another pending entry's
// token.
func (c *Composer) ComposeCustom(ctx context.Context, templateName string, placeholders map[string]string) (string, error) {
	text, err := c.Load(ctx, templateName)
	if err != nil {
		return "", err
	}

	for name, content := range placeholders {
		text = c.substitute(text, name, content)
	}
	return text, nil
}

// StandardOption adjusts a ComposeStandard call.
type StandardOption func(*standardRequest)

type standardRequest struct {
	template    string
	criticalCSS string
}

// WithCriticalCSS supplies content for the {{CRITICAL_CSS}} placeholder.
func WithCriticalCSS(css string) StandardOption {
	return func(r *standardRequest) {
		r.criticalCSS = css
	}
}

// WithTemplate names the template for this call instead of the default.
func WithTemplate(name string) StandardOption {
	return func(r *standardRequest) {
		if name != "" {
			r.template = name
		}
	}
}

// substitute performs one linear replace-all of {{name}} with content.
// strings.ReplaceAll scans the input once and does not revisit inserted
// text, which keeps substitution non-recursive.
func (c *Composer) substitute(text, name, content string) string {
	if c.sanitizer != nil {
		content = c.sanitizer.Sanitize(content)
	}
	return strings.ReplaceAll(text, Token(name), content)
}

// resolveName normalises a template name: empty means the default, a bare
// name gains the .html extension, and anything escaping the store root is
// treated as missing.
func (c *Composer) resolveName(name string) (string, error) {
	if name == "" {
		name = c.defaultTemplate
	}
	if path.Ext(name) == "" {
		name += ".html"
	}
	cleaned := path.Clean(strings.TrimPrefix(name, "/"))
	if !fs.ValidPath(cleaned) {
		return "", fmt.Errorf("compose: template %q: %w", name, ErrTemplateNotFound)
	}
	return cleaned, nil
}

// cacheKey prefers the store's resolved path so watch-based eviction lines
// up with filesystem events; stores without paths key by template name.
func (c *Composer) cacheKey(resolved string) (string, bool) {
	if c.store == nil {
		return "", false
	}
	if p, ok := c.store.Path(resolved); ok {
		return p, true
	}
	return resolved, true
}
