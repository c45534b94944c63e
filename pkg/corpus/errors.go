package corpus

import "fmt"

// DocumentError reports a document that contributed no words to the index.
// It never aborts a corpus build.
type DocumentError struct {
	DocumentID string
	Err        error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: %v", e.DocumentID, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
