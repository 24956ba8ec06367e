package notifier

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/academia-artes/course-assistant/internal/model"
)

const charset = "UTF-8"

// SESAPI is the subset of the SES client used to send mail.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SES delivers leads through Amazon SES.
type SES struct {
	client SESAPI
	from   string
	to     string
}

// NewSES loads the default AWS configuration for region.
func NewSES(ctx context.Context, region, from, to string) (*SES, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: ses sender and destination are required", ErrNotConfigured)
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESWithClient(ses.NewFromConfig(cfg), from, to), nil
}

// NewSESWithClient uses an existing SES client.
func NewSESWithClient(client SESAPI, from, to string) *SES {
	return &SES{client: client, from: from, to: to}
}

// Name returns the transport name.
func (s *SES) Name() string { return "ses" }

// Notify sends the lead as a plain-text email.
func (s *SES) Notify(ctx context.Context, lead *model.Lead) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{s.to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(Subject), Charset: aws.String(charset)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(FormatBody(lead)), Charset: aws.String(charset)},
			},
		},
	}
	if lead.Email != "" {
		input.ReplyToAddresses = []string{lead.Email}
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send lead via SES: %w", err)
	}
	return nil
}
