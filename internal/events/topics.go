package events

// Topic constants for domain events emitted by the engine.
const (
	TopicLedgerConsolidated = "ledger.consolidated"
	TopicOrderRecorded      = "order.recorded"
	TopicOrderRecordFailed  = "order.record_failed"
	TopicGoalUpdated        = "goal.updated"
)

// DefaultTopics returns every topic the engine emits.
func DefaultTopics() []string {
	return []string{
		TopicLedgerConsolidated,
		TopicOrderRecorded,
		TopicOrderRecordFailed,
		TopicGoalUpdated,
	}
}
