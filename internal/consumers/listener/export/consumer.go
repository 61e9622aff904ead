package export

// Consumer processes batches of export events pulled from Kafka.
type Consumer interface {
	Process(events []Event) error
}
