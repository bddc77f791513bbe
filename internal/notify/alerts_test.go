package notify

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directory-workers/internal/common/aws"
	"directory-workers/internal/quality"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("msg")}, nil
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: awssdk.String("mail")}, nil
}

func testAlerts() []quality.QualityAlert {
	return []quality.QualityAlert{
		{ProviderID: 4, Name: "Notaría Ríos", Mean: 4.2, StdDev: 1.6, SampleCount: 10, Message: quality.AdvisoryMessage},
		{ProviderID: 9, Name: "Notaría Vega", Mean: 4.1, StdDev: 1.55, SampleCount: 12, Message: quality.AdvisoryMessage},
	}
}

func TestNotify_BothChannels(t *testing.T) {
	snsAPI := &fakeSNS{}
	sesAPI := &fakeSES{}
	n := NewAlertNotifier(Options{
		SNS:        aws.NewSNSClientWithAPI(snsAPI),
		TopicARN:   "arn:aws:sns:us-east-1:123456789012:quality-alerts",
		SES:        aws.NewSESClientWithAPI(sesAPI),
		FromEmail:  "alertas@example.com",
		Recipients: []string{"admin@example.com"},
	})

	res, err := n.Notify(context.Background(), testAlerts())
	require.NoError(t, err)

	assert.Equal(t, StatusSent, res.Status)
	assert.Equal(t, 2, res.Published)
	assert.True(t, res.EmailSent)
	_, parseErr := uuid.Parse(res.NotificationID)
	assert.NoError(t, parseErr)

	require.Len(t, snsAPI.inputs, 2)
	assert.Equal(t, "4", awssdk.ToString(snsAPI.inputs[0].MessageAttributes["providerId"].StringValue))
	assert.Contains(t, awssdk.ToString(snsAPI.inputs[0].Message), res.NotificationID)

	require.NotNil(t, sesAPI.input)
	assert.Equal(t, "Alertas de calidad: 2 notarías con alta polarización", awssdk.ToString(sesAPI.input.Message.Subject.Data))
}

func TestNotify_Disabled(t *testing.T) {
	n := NewAlertNotifier(Options{})
	assert.False(t, n.Enabled())

	res, err := n.Notify(context.Background(), testAlerts())
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, res.Status)

	// SES without recipients stays disabled
	n = NewAlertNotifier(Options{SES: aws.NewSESClientWithAPI(&fakeSES{}), FromEmail: "a@example.com"})
	assert.False(t, n.Enabled())
}

func TestNotify_NoAlerts(t *testing.T) {
	snsAPI := &fakeSNS{}
	n := NewAlertNotifier(Options{SNS: aws.NewSNSClientWithAPI(snsAPI), TopicARN: "arn"})

	res, err := n.Notify(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, res.Status)
	assert.Empty(t, snsAPI.inputs)
}

func TestNotify_PartialFailure(t *testing.T) {
	n := NewAlertNotifier(Options{
		SNS:        aws.NewSNSClientWithAPI(&fakeSNS{err: errors.New("throttled")}),
		TopicARN:   "arn",
		SES:        aws.NewSESClientWithAPI(&fakeSES{}),
		FromEmail:  "alertas@example.com",
		Recipients: []string{"admin@example.com"},
	})

	res, err := n.Notify(context.Background(), testAlerts())
	require.Error(t, err)
	assert.ErrorContains(t, err, "throttled")
	assert.Equal(t, StatusFailed, res.Status)
	assert.Zero(t, res.Published)
	assert.True(t, res.EmailSent)
}

func TestDigest(t *testing.T) {
	d := Digest(testAlerts())
	assert.Contains(t, d, "Se detectaron 2 notarías")
	assert.Contains(t, d, "- [4] Notaría Ríos: promedio 4.20, desviación 1.60 (10 calificaciones)")
	assert.Contains(t, d, quality.AdvisoryMessage)
}
