package prompt

import (
	"github.com/arthur-debert/secretpipe/pkg/logging"
	"github.com/arthur-debert/secretpipe/pkg/template"
)

// Resolve acquires a value for each placeholder, in extraction order,
// and returns the completed replacement map. Each distinct placeholder
// is prompted exactly once; repeated occurrences reuse the cached
// value. Empty input is accepted as-is, with no retry or validation.
func Resolve(placeholders []template.Placeholder, driver Driver) (*template.Replacements, error) {
	log := logging.GetLogger("prompt")
	reps := template.NewReplacements()

	for _, ph := range placeholders {
		if _, ok := reps.Get(ph.FullText); ok {
			continue
		}

		// Values are never logged, only the prompt.
		log.Debug().Str("prompt", ph.Prompt).Bool("silent", ph.Silent).Msg("Resolving placeholder")

		var value string
		var err error
		if ph.Silent {
			value, err = driver.Password(ph.Prompt)
		} else {
			value, err = driver.Input(ph.Prompt)
		}
		if err != nil {
			return nil, err
		}

		reps.Set(ph.FullText, value)
	}

	return reps, nil
}
