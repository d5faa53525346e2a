package analysis

import "errors"

// ErrUnsupportedLanguage indicates a language with no stop-word list or
// stemmer support.
var ErrUnsupportedLanguage = errors.New("unsupported language")
