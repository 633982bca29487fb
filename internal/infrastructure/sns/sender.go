package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Publisher is the subset of *sns.Client used here.
type Publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// EmailMessage is the JSON document published to the topic; a mail worker
// subscribed to it performs delivery.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// EmailSender hands outbound emails to an SNS topic.
type EmailSender struct {
	client   Publisher
	topicARN string
}

func NewEmailSender(awsCfg aws.Config, topicARN string) *EmailSender {
	return &EmailSender{client: sns.NewFromConfig(awsCfg), topicARN: topicARN}
}

func newEmailSender(client Publisher, topicARN string) *EmailSender {
	return &EmailSender{client: client, topicARN: topicARN}
}

func (s *EmailSender) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	body, err := json.Marshal(EmailMessage{To: to, Subject: subject, HTML: htmlBody})
	if err != nil {
		return fmt.Errorf("marshal email message: %w", err)
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String("email")},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
