package models

import "fmt"

// ExtractionError reports that text could not be acquired from a file.
type ExtractionError struct {
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// TranslationError reports that the translation backend rejected or failed a request.
type TranslationError struct {
	Cause error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation failed: %v", e.Cause)
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}
