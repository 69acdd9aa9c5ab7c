package parsers

import (
	"io"

	"github.com/username/markupx/backend/src/models"
)

// SpecParser reads an uploaded symbol-specification sheet into instrument rows.
// Implementations must fail the whole load when a required column or field is
// missing, naming the column in the error.
type SpecParser interface {
	Parse(file io.Reader) ([]models.InstrumentSpec, error)
}
