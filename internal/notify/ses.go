// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package notify

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/samber/oops"
)

// SESConfig configures SESNotifier. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
type SESConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	From            string
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Seams for tests.
var (
	loadAWSConfig    = config.LoadDefaultConfig
	newSESFromConfig = func(cfg aws.Config, optFns ...func(*sesv2.Options)) sesAPI {
		return sesv2.NewFromConfig(cfg, optFns...)
	}
)

// SESNotifier sends codes through Amazon SES.
type SESNotifier struct {
	client sesAPI
	from   string
	logger *slog.Logger
}

// NewSESNotifier loads AWS configuration and creates an SES client. A nil
// logger uses slog.Default.
func NewSESNotifier(ctx context.Context, cfg SESConfig, logger *slog.Logger) (*SESNotifier, error) {
	if cfg.Region == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("ses region is required")
	}
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	if logger == nil {
		logger = slog.Default()
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := loadAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").With("operation", "load aws config").Wrap(err)
	}

	client := newSESFromConfig(awsCfg, func(o *sesv2.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &SESNotifier{client: client, from: cfg.From, logger: logger}, nil
}

// SendOTP emails code to email.
func (n *SESNotifier) SendOTP(ctx context.Context, email, code string) error {
	out, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination:      &types.Destination{ToAddresses: []string{email}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(Body(code)), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return oops.Code("NOTIFY_SES_FAILED").With("email", email).Wrap(err)
	}
	var messageID string
	if out != nil {
		messageID = aws.ToString(out.MessageId)
	}
	n.logger.DebugContext(ctx, "ses email accepted", "email", email, "message_id", messageID)
	return nil
}
