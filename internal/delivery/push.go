// internal/delivery/push.go
package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"proactive-notify/internal/common/logger"
	"proactive-notify/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

// SNSService is the slice of the SNS client the sink needs, kept as an
// interface for mocking.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// PushSink publishes notifications to an SNS topic, from where device
// endpoints pick them up. Best-effort: a missed publish is lost, never
// re-queued.
type PushSink struct {
	client   SNSService
	topicARN string
	logger   logger.Logger
}

func NewPushSink(ctx context.Context, region, topicARN string, log logger.Logger) (*PushSink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &PushSink{
		client:   sns.NewFromConfig(awsCfg),
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"sink": "push"}),
	}, nil
}

// NewPushSinkWithClient injects an SNS client, for tests.
func NewPushSinkWithClient(client SNSService, topicARN string, log logger.Logger) *PushSink {
	return &PushSink{
		client:   client,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"sink": "push"}),
	}
}

func (s *PushSink) Name() string { return "push" }

func (s *PushSink) Deliver(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(n.Title),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		return err
	}

	s.logger.Debug("push published", map[string]interface{}{
		"notificationId": n.ID,
		"receiptId":      uuid.New().String(),
	})
	return nil
}
