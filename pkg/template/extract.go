// Package template implements placeholder extraction and rendering for
// secretpipe templates. A placeholder is any substring matching the
// configured two-capture-group pattern; the first group marks hidden
// input, the second carries the prompt shown to the operator.
package template

import (
	"regexp"

	"github.com/arthur-debert/secretpipe/pkg/errors"
)

// DefaultPattern recognizes placeholders of the form <%prompt%> and
// <%*prompt%>, the leading asterisk selecting hidden input.
const DefaultPattern = `<%(\*)?(.+?)%>`

// Placeholder is one distinct value to be filled in by the operator.
// FullText is the literal substring to replace, delimiters included.
type Placeholder struct {
	FullText string
	Silent   bool
	Prompt   string
}

// CompilePattern compiles the extraction pattern, mapping a syntax
// error to a stable configuration error.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPatternInvalid, "cannot compile placeholder pattern %q", pattern)
	}
	return re, nil
}

// Extract scans text for placeholders in first-occurrence order,
// deduplicated by full matched text. Two placeholders with the same
// prompt but different delimiter text stay distinct. A template with
// no placeholders yields an empty slice, not an error.
//
// The pattern must carry exactly two capture groups. That is checked
// lazily, on the first match that yields fewer than three capture
// slots, matching how a misconfigured pattern actually surfaces.
func Extract(text string, re *regexp.Regexp) ([]Placeholder, error) {
	matches := re.FindAllStringSubmatch(text, -1)

	var placeholders []Placeholder
	seen := make(map[string]bool)

	for _, m := range matches {
		if len(m) < 3 {
			return nil, errors.Newf(errors.ErrPatternInvalid,
				"placeholder pattern %q must have two capture groups (silent marker, prompt)", re.String())
		}
		if seen[m[0]] {
			continue
		}
		seen[m[0]] = true
		placeholders = append(placeholders, Placeholder{
			FullText: m[0],
			Silent:   m[1] != "",
			Prompt:   m[2],
		})
	}

	return placeholders, nil
}
