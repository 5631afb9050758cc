package knowledge

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model answers with nothing usable.
var ErrEmptyResponse = errors.New("empty response from model")

// Asker sends one templated question to a chat model and returns the raw answer.
type Asker interface {
	Ask(ctx context.Context, tpl *Template, question string) (string, error)
}
