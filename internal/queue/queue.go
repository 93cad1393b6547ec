// Package queue hands purchase plans to the executing collaborator. Each
// plan becomes one message carrying a fresh idempotency token, so retrying a
// run cannot double-purchase.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rshade/commitpilot/internal/engine"
	"github.com/rshade/commitpilot/internal/logfields"
)

// Message is the unit delivered to the purchase executor.
type Message struct {
	IdempotencyToken string              `json:"idempotency_token"`
	RunID            string              `json:"run_id"`
	Plan             engine.PurchasePlan `json:"plan"`
	EnqueuedAt       time.Time           `json:"enqueued_at"`
}

// Queue delivers purchase messages.
type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
}

// SQSAPI is the slice of the SQS client used by SQSQueue.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSQueue publishes purchase messages to an SQS FIFO queue. The idempotency
// token doubles as the deduplication ID and the category as the message
// group, so plans for one category are executed in order.
type SQSQueue struct {
	api      SQSAPI
	queueURL string
}

// NewSQSQueue returns a queue publishing to queueURL.
func NewSQSQueue(api SQSAPI, queueURL string) *SQSQueue {
	return &SQSQueue{api: api, queueURL: queueURL}
}

// Enqueue sends one purchase message.
func (q *SQSQueue) Enqueue(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode purchase message: %w", err)
	}
	_, err = q.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:               aws.String(q.queueURL),
		MessageBody:            aws.String(string(body)),
		MessageDeduplicationId: aws.String(msg.IdempotencyToken),
		MessageGroupId:         aws.String(string(msg.Plan.Category)),
	})
	if err != nil {
		return fmt.Errorf("send purchase message: %w", err)
	}
	return nil
}

// Publisher assigns idempotency tokens and enqueues one message per plan.
type Publisher struct {
	queue  Queue
	logger zerolog.Logger
	now    func() time.Time
}

// NewPublisher returns a Publisher delivering to queue.
func NewPublisher(queue Queue, logger zerolog.Logger) *Publisher {
	return &Publisher{queue: queue, logger: logger, now: time.Now}
}

// Publish enqueues every plan. The first delivery failure aborts: the
// executor must never see a silently truncated purchase set without the
// caller knowing.
func (p *Publisher) Publish(ctx context.Context, runID string, plans []engine.PurchasePlan) error {
	for _, plan := range plans {
		msg := Message{
			IdempotencyToken: uuid.New().String(),
			RunID:            runID,
			Plan:             plan,
			EnqueuedAt:       p.now().UTC(),
		}
		if err := p.queue.Enqueue(ctx, msg); err != nil {
			return fmt.Errorf("enqueue %s plan: %w", plan.Category, err)
		}
		p.logger.Info().
			Str(logfields.RunID, runID).
			Str(logfields.Category, string(plan.Category)).
			Str("idempotency_token", msg.IdempotencyToken).
			Float64("hourly_commitment", plan.HourlyCommitment).
			Msg("purchase plan enqueued")
	}
	return nil
}
