package dedupcache

import "github.com/stretchr/testify/mock"

// Ensure MockCache implements Cache interface
var _ Cache = (*MockCache)(nil)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Seen(key string) bool {
	args := m.Called(key)
	return args.Bool(0)
}

func (m *MockCache) MarkSeen(keys ...string) {
	m.Called(keys)
}

func (m *MockCache) Forget(key string) {
	m.Called(key)
}
