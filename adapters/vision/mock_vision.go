package vision

import (
	"context"

	"github.com/sitewatch/sitewatch/domain/entities"
	"github.com/sitewatch/sitewatch/domain/repositories"
)

// MockModel is a test double for the vision backends. Errs are returned in
// order before Text, so tests can simulate throttling followed by success.
type MockModel struct {
	Text  string
	Usage entities.TokenUsage
	Errs  []error

	Calls  int
	Images [][]byte
}

// Analyze pops the next queued error or returns the configured response.
func (m *MockModel) Analyze(ctx context.Context, imageJPEG []byte) (*repositories.VisionResponse, error) {
	m.Calls++
	m.Images = append(m.Images, imageJPEG)

	if len(m.Errs) > 0 {
		err := m.Errs[0]
		m.Errs = m.Errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &repositories.VisionResponse{Text: m.Text, Usage: m.Usage}, nil
}
