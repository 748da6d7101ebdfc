// Package compose merges caller-supplied HTML fragments into named page
// templates. Templates are plain text resources containing literal
// {{NAME}} placeholder tokens; composition replaces every occurrence of
// each supplied token with its fragment verbatim. There is no escaping,
// no recursive expansion, and no conditional logic: fragments go in
// exactly as given, and tokens without a supplied fragment survive in
// the output untouched.
package compose
