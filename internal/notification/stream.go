package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultStreamMaxLen = 100_000

// StreamNotifier publishes records to a Redis stream for downstream consumers.
type StreamNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamNotifier publishes to the named stream, trimming it to roughly
// maxLen entries. A non-positive maxLen selects the default.
func NewStreamNotifier(client *redis.Client, stream string, maxLen int64) *StreamNotifier {
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &StreamNotifier{client: client, stream: stream, maxLen: maxLen}
}

// OnTransaction appends the record to the stream.
func (n *StreamNotifier) OnTransaction(ctx context.Context, record Record) error {
	err := n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Approx: true,
		Values: map[string]any{
			"account_id": record.AccountID,
			"type":       string(record.Kind),
			"amount":     FormatAmount(record.Amount),
			"at":         record.At.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish transaction to %s: %w", n.stream, err)
	}
	return nil
}
