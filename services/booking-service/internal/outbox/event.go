package outbox

// Event is a booking domain event written to outbox_events in the same transaction
// as the state change it describes. The Kafka topic equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}
