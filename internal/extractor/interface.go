package extractor

import "context"

// Extractor defines the interface for reading match results out of a
// screenshot. This allows for mock implementations to be used in tests.
type Extractor interface {
	ExtractMatchData(ctx context.Context, imageURL string) (*Result, error)
}
