package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

var (
	ErrNoRecipient = errors.New("message has no recipient")
)

// SESAPI is the part of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSAPI is the part of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// LoadAWSConfig resolves credentials from the default chain for region.
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

// SESSender emails the applicant's contact address.
type SESSender struct {
	client SESAPI
	from   string
}

func NewSESSender(client SESAPI, from string) *SESSender {
	return &SESSender{client: client, from: from}
}

func NewSESSenderFromConfig(cfg aws.Config, from string) *SESSender {
	return NewSESSender(ses.NewFromConfig(cfg), from)
}

func (s *SESSender) Channel() string { return "email" }

func (s *SESSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body)},
			},
		},
		Source: aws.String(s.from),
	})
	return err
}

// SNSSender texts the contact phone. Messages without a phone are skipped.
type SNSSender struct {
	client SNSAPI
}

func NewSNSSender(client SNSAPI) *SNSSender {
	return &SNSSender{client: client}
}

func NewSNSSenderFromConfig(cfg aws.Config) *SNSSender {
	return NewSNSSender(sns.NewFromConfig(cfg))
}

func (s *SNSSender) Channel() string { return "sms" }

func (s *SNSSender) Send(ctx context.Context, msg Message) error {
	if msg.Phone == "" {
		return nil
	}
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(msg.Phone),
		Message:     aws.String(msg.Subject),
	})
	return err
}
