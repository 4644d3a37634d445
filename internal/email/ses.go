package email

import (
	"context"
	"fmt"
	"time"

	"github.com/artfolio/backend/internal/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailService handles sending emails via AWS SES
type EmailService struct {
	client    *ses.Client
	fromEmail string
	fromName  string
	baseURL   string
}

// NewEmailService creates a new email service using AWS SES
func NewEmailService(region, fromEmail, fromName, baseURL string) (*EmailService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := ses.NewFromConfig(cfg)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
	}, nil
}

// SendCommentNotification emails an artist when someone comments on
// their work. Sent only when the recipient has email notifications on.
func (e *EmailService) SendCommentNotification(ctx context.Context, toEmail, actorName, workTitle, workID string) error {
	workURL := fmt.Sprintf("%s/works/%s", e.baseURL, workID)

	subject := fmt.Sprintf("%s commented on \"%s\"", actorName, workTitle)
	htmlBody := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<style>
				body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
				.container { max-width: 600px; margin: 0 auto; padding: 20px; }
				.button { display: inline-block; padding: 12px 24px; background-color: #7c5cff; color: white; text-decoration: none; border-radius: 6px; margin: 20px 0; }
			</style>
		</head>
		<body>
			<div class="container">
				<h1>New comment on your work</h1>
				<p>%s left a comment on "%s".</p>
				<a href="%s" class="button">View Comment</a>
				<p>Or copy and paste this link into your browser:</p>
				<p style="word-break: break-all; color: #666;">%s</p>
				<hr>
				<p style="color: #999; font-size: 12px;">This is an automated message from Artfolio. You can turn off email notifications in your settings.</p>
			</div>
		</body>
		</html>
	`, actorName, workTitle, workURL, workURL)

	textBody := fmt.Sprintf(`
New comment on your work

%s left a comment on "%s".

%s

This is an automated message from Artfolio. You can turn off email notifications in your settings.
	`, actorName, workTitle, workURL)

	return e.send(ctx, toEmail, subject, htmlBody, textBody)
}

// SendNewVersionNotification emails thread followers when an artist they
// follow publishes a new version of a work.
func (e *EmailService) SendNewVersionNotification(ctx context.Context, toEmail, artistName, workTitle, workID string) error {
	workURL := fmt.Sprintf("%s/works/%s", e.baseURL, workID)

	subject := fmt.Sprintf("%s posted a new version of \"%s\"", artistName, workTitle)
	htmlBody := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<style>
				body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
				.container { max-width: 600px; margin: 0 auto; padding: 20px; }
				.button { display: inline-block; padding: 12px 24px; background-color: #7c5cff; color: white; text-decoration: none; border-radius: 6px; margin: 20px 0; }
			</style>
		</head>
		<body>
			<div class="container">
				<h1>New version published</h1>
				<p>%s published a new version of "%s".</p>
				<a href="%s" class="button">See What Changed</a>
				<hr>
				<p style="color: #999; font-size: 12px;">This is an automated message from Artfolio. You can turn off email notifications in your settings.</p>
			</div>
		</body>
		</html>
	`, artistName, workTitle, workURL)

	textBody := fmt.Sprintf(`
New version published

%s published a new version of "%s".

%s

This is an automated message from Artfolio. You can turn off email notifications in your settings.
	`, artistName, workTitle, workURL)

	return e.send(ctx, toEmail, subject, htmlBody, textBody)
}

// send builds and dispatches one email through SES
func (e *EmailService) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	ctx, span := telemetry.TraceExternalCall(ctx, telemetry.ExternalServiceCallAttrs{
		Service:   "ses",
		Operation: "send_email",
	})
	defer span.End()

	from := e.fromEmail
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := e.client.SendEmail(ctx, input); err != nil {
		telemetry.RecordExternalCallError(span, err, 0)
		return fmt.Errorf("failed to send email: %w", err)
	}

	telemetry.RecordExternalCallSuccess(span, 0)
	return nil
}
