package export

var (
	DefaultVersion = 1
)

func NewConsumer(version int) Consumer {
	switch version {
	case DefaultVersion:
		return newExportConsumer()
	default:
		return nil
	}
}

// SetInstance sets the consumer instance, used for mocking in tests
func SetInstance(c Consumer) {
	exportConsumer = c
}
