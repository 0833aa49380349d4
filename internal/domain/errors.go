package domain

import "fmt"

// ConfigurationError reports a missing or malformed setting. It is fatal and raised before any I/O.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Key, e.Reason)
}

// FetchError reports that one source could not be fetched or parsed.
type FetchError struct {
	SourceID string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch source %s: %v", e.SourceID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TranslationError reports that one field of one entry could not be translated.
type TranslationError struct {
	ArticleID string
	Field     string
	Err       error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translate %s of %s: %v", e.Field, e.ArticleID, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// PersistenceError reports that the state or feed file could not be read or written.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
