package vector

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Ensure MockDatabase implements Database interface
var _ Database = (*MockDatabase)(nil)

type MockDatabase struct {
	mock.Mock
}

func (m *MockDatabase) EnsureCollection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDatabase) FetchExistingKeys(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return args.Get(0).(map[string]struct{}), nil
}

func (m *MockDatabase) BulkUpsert(ctx context.Context, points []Point) error {
	args := m.Called(ctx, points)
	return args.Error(0)
}

func (m *MockDatabase) CreateScalarIndex(ctx context.Context, field string) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *MockDatabase) UpdateIndexingThreshold(ctx context.Context, indexingThreshold int64) error {
	args := m.Called(ctx, indexingThreshold)
	return args.Error(0)
}

func (m *MockDatabase) GetCollectionInfo(ctx context.Context) (*CollectionInfoResponse, error) {
	args := m.Called(ctx)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return args.Get(0).(*CollectionInfoResponse), nil
}
