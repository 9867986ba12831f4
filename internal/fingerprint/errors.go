package fingerprint

import (
	"errors"
	"fmt"

	"github.com/bomac1193/Issuance/internal/domain"
)

// ExtractionError reports audio that cannot produce a fingerprint.
// errors.Is(err, domain.ErrExtraction) holds for every ExtractionError.
type ExtractionError struct {
	Err error
}

// NewExtractionError wraps err unless it already is an ExtractionError
func NewExtractionError(err error) error {
	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return err
	}
	return &ExtractionError{Err: err}
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return domain.ErrExtraction.Error()
	}
	return fmt.Sprintf("%s: %s", domain.ErrExtraction.Error(), e.Err.Error())
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Is(target error) bool {
	return target == domain.ErrExtraction
}
