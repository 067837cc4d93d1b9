package template

import (
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/arthur-debert/secretpipe/pkg/errors"
)

// EncodeFor transcodes rendered text into the named IANA charset,
// making the delivered byte encoding an explicit configuration value
// instead of something inherited from the process environment.
// An empty name or any UTF-8 alias returns the text's bytes as-is.
func EncodeFor(text string, encodingName string) ([]byte, error) {
	name := strings.ToLower(strings.TrimSpace(encodingName))
	if name == "" || name == "utf-8" || name == "utf8" {
		return []byte(text), nil
	}

	enc, err := ianaindex.IANA.Encoding(encodingName)
	if err != nil || enc == nil {
		return nil, errors.Newf(errors.ErrEncodingInvalid, "unknown output encoding %q", encodingName)
	}

	out, err := enc.NewEncoder().String(text)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrEncodingInvalid, "cannot encode rendered text as %q", encodingName)
	}
	return []byte(out), nil
}
