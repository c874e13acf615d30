// Package kafka holds broker administration shared by the install command
// and the consumer.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// EnsureTopics creates topics that do not exist yet. Existing topics are
// left as they are.
func EnsureTopics(ctx context.Context, brokers []string, partitions int32, replication int16, topics ...string) ([]string, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}

	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, topics...)
	if err != nil {
		return nil, fmt.Errorf("creating topics: %w", err)
	}

	var created []string
	var errs []error
	for _, t := range resp.Sorted() {
		switch {
		case t.Err == nil:
			created = append(created, t.Topic)
		case errors.Is(t.Err, kerr.TopicAlreadyExists):
		default:
			errs = append(errs, fmt.Errorf("topic %s: %w", t.Topic, t.Err))
		}
	}
	return created, errors.Join(errs...)
}
