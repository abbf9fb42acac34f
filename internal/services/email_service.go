package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/auth-service/internal/models"
	pkglogger "github.com/BradenHooton/auth-service/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// sesAPI is the part of the SES client used to send mail
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESEmailClient sends emails using AWS SES
type SESEmailClient struct {
	sesClient   sesAPI
	fromAddress string
	logger      *slog.Logger
}

// NewSESEmailClient creates an SES client from the default AWS credential chain
func NewSESEmailClient(ctx context.Context, region, fromAddress string, logger *slog.Logger) (*SESEmailClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESEmailClient{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// Send delivers a plain text email
func (c *SESEmailClient) Send(ctx context.Context, recipient models.Email, subject, content string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(c.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{recipient.String()},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(content),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	out, err := c.sesClient.SendEmail(ctx, input)
	if err != nil {
		c.logger.Error("failed to send email via SES",
			slog.String("recipient", pkglogger.SanitizedEmail(recipient.String())),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.Info("email sent",
		slog.String("recipient", pkglogger.SanitizedEmail(recipient.String())),
		slog.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

// LogEmailClient writes emails to the log instead of sending them. Development only.
type LogEmailClient struct {
	logger *slog.Logger
}

// NewLogEmailClient creates a new LogEmailClient
func NewLogEmailClient(logger *slog.Logger) *LogEmailClient {
	return &LogEmailClient{logger: logger}
}

func (c *LogEmailClient) Send(ctx context.Context, recipient models.Email, subject, content string) error {
	c.logger.InfoContext(ctx, "email delivery (log backend)",
		slog.String("recipient", pkglogger.SanitizedEmail(recipient.String())),
		slog.String("subject", subject),
		slog.String("content", content))
	return nil
}
