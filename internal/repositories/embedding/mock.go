package embedding

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return args.Get(0).([][]float32), nil
}
