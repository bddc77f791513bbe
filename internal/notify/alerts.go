// Package notify fans quality alerts out to SNS subscribers and an SES
// digest email.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"directory-workers/internal/common/aws"
	"directory-workers/internal/quality"
)

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

const digestSubject = "Alertas de calidad: %d notarías con alta polarización"

// AlertNotifier publishes each alert to an SNS topic and mails one digest.
// Either channel is skipped when its client is nil.
type AlertNotifier struct {
	sns        *aws.SNSClient
	topicARN   string
	ses        *aws.SESClient
	from       string
	recipients []string
}

type Options struct {
	SNS        *aws.SNSClient
	TopicARN   string
	SES        *aws.SESClient
	FromEmail  string
	Recipients []string
}

func NewAlertNotifier(opts Options) *AlertNotifier {
	n := &AlertNotifier{from: opts.FromEmail, recipients: opts.Recipients}
	if opts.SNS != nil && opts.TopicARN != "" {
		n.sns = opts.SNS
		n.topicARN = opts.TopicARN
	}
	if opts.SES != nil && opts.FromEmail != "" && len(opts.Recipients) > 0 {
		n.ses = opts.SES
	}
	return n
}

// Enabled reports whether at least one channel is configured.
func (n *AlertNotifier) Enabled() bool {
	return n != nil && (n.sns != nil || n.ses != nil)
}

type Result struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	Published      int    `json:"published"`
	EmailSent      bool   `json:"emailSent"`
	SentAt         string `json:"sentAt"`
}

type alertMessage struct {
	NotificationID string               `json:"notificationId"`
	Alert          quality.QualityAlert `json:"alert"`
}

// Notify sends alerts on every configured channel. Channel failures are
// joined into the returned error; the Result still reports what was sent.
func (n *AlertNotifier) Notify(ctx context.Context, alerts []quality.QualityAlert) (Result, error) {
	res := Result{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}
	if !n.Enabled() || len(alerts) == 0 {
		return res, nil
	}

	var errs []error

	if n.sns != nil {
		for _, a := range alerts {
			_, err := n.sns.PublishJSON(ctx, n.topicARN, "quality-alert",
				alertMessage{NotificationID: res.NotificationID, Alert: a},
				map[string]string{"providerId": strconv.FormatInt(a.ProviderID, 10)},
			)
			if err != nil {
				errs = append(errs, fmt.Errorf("provider %d: %w", a.ProviderID, err))
				continue
			}
			res.Published++
		}
	}

	if n.ses != nil {
		_, err := n.ses.SendText(ctx, n.from, n.recipients, fmt.Sprintf(digestSubject, len(alerts)), Digest(alerts))
		if err != nil {
			errs = append(errs, err)
		} else {
			res.EmailSent = true
		}
	}

	if len(errs) > 0 {
		res.Status = StatusFailed
		return res, errors.Join(errs...)
	}
	res.Status = StatusSent
	return res, nil
}

// Digest renders the plain-text email body, one line per alert.
func Digest(alerts []quality.QualityAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Se detectaron %d notarías con calificaciones polarizadas:\n\n", len(alerts))
	for _, a := range alerts {
		fmt.Fprintf(&b, "- [%d] %s: promedio %.2f, desviación %.2f (%d calificaciones)\n",
			a.ProviderID, a.Name, a.Mean, a.StdDev, a.SampleCount)
	}
	b.WriteString("\n")
	b.WriteString(quality.AdvisoryMessage)
	b.WriteString("\n")
	return b.String()
}
