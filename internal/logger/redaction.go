package logger

import (
	"io"
	"regexp"
)

const redacted = "[REDACTED]"

type redactionRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Redactor masks secrets that tools or their settings may leak into logs
type Redactor struct {
	rules []redactionRule
}

// NewRedactor creates a redactor with the default patterns
func NewRedactor() *Redactor {
	r := &Redactor{}

	// API keys
	r.mustAdd(`sk-[a-zA-Z0-9_-]{20,}`, redacted)
	// Bearer tokens
	r.mustAdd(`Bearer\s+[a-zA-Z0-9._-]+`, "Bearer "+redacted)
	// AWS access keys
	r.mustAdd(`AKIA[0-9A-Z]{16}`, redacted)
	// key=value and JSON field secrets; the key is kept so JSON stays valid
	r.mustAdd(`(?i)((?:password|passwd|pwd|secret|api_key|apikey)"?\s*[:=]\s*"?)[^\s",}]+`, "${1}"+redacted)
	r.mustAdd(`(?i)(token"?\s*[:=]\s*"?)[a-zA-Z0-9._-]{20,}`, "${1}"+redacted)

	return r
}

func (r *Redactor) mustAdd(pattern, replacement string) {
	r.rules = append(r.rules, redactionRule{
		pattern:     regexp.MustCompile(pattern),
		replacement: replacement,
	})
}

// AddPattern masks every full match of pattern
func (r *Redactor) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.rules = append(r.rules, redactionRule{pattern: re, replacement: redacted})
	return nil
}

// Redact masks every pattern match in s
func (r *Redactor) Redact(s string) string {
	for _, rule := range r.rules {
		s = rule.pattern.ReplaceAllString(s, rule.replacement)
	}
	return s
}

// Wrap returns a writer that redacts before writing to w
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{writer: w, redactor: r}
}

type redactingWriter struct {
	writer   io.Writer
	redactor *Redactor
}

// Write reports len(p) on success even when redaction changed the length
func (w *redactingWriter) Write(p []byte) (int, error) {
	if _, err := w.writer.Write([]byte(w.redactor.Redact(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
