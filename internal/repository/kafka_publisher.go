package repository

import (
	"context"
	"time"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	pkgkafka "FinScore/pkg/kafka"
)

var _ domrepo.Publisher = (*KafkaResultPublisher)(nil)

// batchPublisher is the part of *pkgkafka.Producer the publisher uses.
type batchPublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaResultPublisher emits assessments and anomaly records keyed by
// company so consumers see one company's rows in order.
type KafkaResultPublisher struct {
	producer         batchPublisher
	assessmentsTopic string
	anomaliesTopic   string
}

func NewKafkaResultPublisher(producer *pkgkafka.Producer, assessmentsTopic, anomaliesTopic string) *KafkaResultPublisher {
	return &KafkaResultPublisher{producer: producer, assessmentsTopic: assessmentsTopic, anomaliesTopic: anomaliesTopic}
}

type assessmentMessage struct {
	RunID string `json:"run_id"`
	models.Assessment
}

type anomalyMessage struct {
	RunID string `json:"run_id"`
	models.AnomalyRecord
}

func (p *KafkaResultPublisher) PublishAssessments(ctx context.Context, runID string, items []models.Assessment) error {
	msgs := make([]pkgkafka.Message, len(items))
	for i, a := range items {
		msgs[i] = pkgkafka.Message{
			Key:     []byte(a.Company),
			Value:   assessmentMessage{RunID: runID, Assessment: a},
			Headers: map[string]string{"run_id": runID, "cohort": string(a.Cohort)},
		}
	}
	return p.producer.PublishBatch(ctx, p.assessmentsTopic, msgs)
}

// PublishAnomalies sends only flagged rows; the full table is in the store.
func (p *KafkaResultPublisher) PublishAnomalies(ctx context.Context, runID string, records []models.AnomalyRecord) error {
	msgs := make([]pkgkafka.Message, 0, len(records))
	for _, r := range records {
		if !r.IsAnomaly {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(r.Company),
			Value: anomalyMessage{RunID: runID, AnomalyRecord: r},
			Headers: map[string]string{
				"run_id":    runID,
				"dimension": r.Dimension.String(),
				"date":      r.Date.Format(time.DateOnly),
			},
		})
	}
	return p.producer.PublishBatch(ctx, p.anomaliesTopic, msgs)
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher drops everything. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishAssessments(context.Context, string, []models.Assessment) error {
	return nil
}

func (NoopPublisher) PublishAnomalies(context.Context, string, []models.AnomalyRecord) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
