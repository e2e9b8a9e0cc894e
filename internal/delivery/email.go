// internal/delivery/email.go
package delivery

import (
	"context"
	"fmt"

	"proactive-notify/internal/common/logger"
	"proactive-notify/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/google/uuid"
)

// SESService is the slice of the SES client the sink needs, kept as an
// interface for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailSink delivers notifications as SES emails. Intended for the digest
// channel (briefings, conflict alerts) rather than minute-level reminders.
type EmailSink struct {
	client    SESService
	fromEmail string
	toEmail   string
	logger    logger.Logger
}

func NewEmailSink(ctx context.Context, region, fromEmail, toEmail string, log logger.Logger) (*EmailSink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &EmailSink{
		client:    ses.NewFromConfig(awsCfg),
		fromEmail: fromEmail,
		toEmail:   toEmail,
		logger:    log.WithFields(map[string]interface{}{"sink": "email"}),
	}, nil
}

// NewEmailSinkWithClient injects an SES client, for tests.
func NewEmailSinkWithClient(client SESService, fromEmail, toEmail string, log logger.Logger) *EmailSink {
	return &EmailSink{
		client:    client,
		fromEmail: fromEmail,
		toEmail:   toEmail,
		logger:    log.WithFields(map[string]interface{}{"sink": "email"}),
	}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Deliver(ctx context.Context, n *models.Notification) error {
	subject := fmt.Sprintf("[%s] %s", n.Priority, n.Title)

	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{s.toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(n.Message)},
			},
		},
		Source: aws.String(s.fromEmail),
	})
	if err != nil {
		return err
	}

	s.logger.Info("email delivered", map[string]interface{}{
		"notificationId": n.ID,
		"receiptId":      uuid.New().String(),
	})
	return nil
}
