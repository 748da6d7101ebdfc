package compose

import "errors"

// ErrTemplateNotFound reports that the requested template resource does not
// exist under the configured store. Read failures of any other kind are
// wrapped and propagated unchanged in kind; neither case falls back to a
// default template.
var ErrTemplateNotFound = errors.New("compose: template not found")
