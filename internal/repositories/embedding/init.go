package embedding

import (
	"sync"
)

var (
	embeddingStore Store
	once           sync.Once
	DefaultVersion = 1
)

func NewRepository(version int) Store {
	switch version {
	case DefaultVersion:
		return initApiStore()
	default:
		return nil
	}
}

func initApiStore() Store {
	if embeddingStore == nil {
		once.Do(func() {
			embeddingStore = createApiStore()
		})
	}
	return embeddingStore
}

func SetInstance(provider Store) {
	embeddingStore = provider
	once.Do(func() {}) // Marking the sync once as done
}
