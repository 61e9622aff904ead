package vector

var DefaultVersion = 1

func NewRepository(version int) Database {
	switch version {
	case DefaultVersion:
		return initQdrantInstance()
	default:
		return nil
	}
}

// SetInstance sets the package-level singleton to the given implementation.
// Use only in tests.
func SetInstance(db Database) {
	vectorDb = db
}
