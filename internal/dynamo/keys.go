// Package dynamo provides shared DynamoDB constants.
package dynamo

const (
	// Counter item attributes.
	AttrID        = "id"
	AttrValue     = "value"
	AttrTimestamp = "timestamp"

	// CounterKey is the fixed id of the single counter item.
	CounterKey = "open"
)
