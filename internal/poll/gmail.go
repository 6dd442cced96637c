package poll

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"inbox-triage-go/internal/config"
	"inbox-triage-go/internal/model"
)

// GmailSource polls a Gmail account through the Gmail API.
type GmailSource struct {
	service   *gmail.Service
	userEmail string
	lastCheck time.Time
}

// NewGmailSource creates a Gmail API poll source from OAuth2 credentials.
func NewGmailSource(cfg *config.MailConfig, lookback time.Duration) (*GmailSource, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}
	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailSource{
		service:   service,
		userEmail: cfg.UserEmail,
		lastCheck: time.Now().Add(-lookback),
	}, nil
}

// Poll lists and normalizes messages newer than the last check. Individual
// message failures degrade the batch instead of failing it.
func (s *GmailSource) Poll(ctx context.Context) (*model.PollBatch, error) {
	started := time.Now()
	query := fmt.Sprintf("after:%d", s.lastCheck.Unix())

	response, err := s.service.Users.Messages.List(s.userEmail).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	batch := &model.PollBatch{
		RunID:     uuid.NewString(),
		StartedAt: started,
	}
	summary := model.MailboxSummary{Mailbox: s.userEmail}

	for _, ref := range response.Messages {
		msg, err := s.service.Users.Messages.Get(s.userEmail, ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			logrus.Warnf("Failed to get message %s: %v", ref.Id, err)
			summary.Error = err.Error()
			batch.PartialFailure = true
			continue
		}
		batch.Messages = append(batch.Messages, s.normalize(msg))
		summary.Fetched++
	}

	batch.Summaries = []model.MailboxSummary{summary}
	batch.FinishedAt = time.Now()
	s.lastCheck = time.Now()
	return batch, nil
}

// normalize converts a Gmail API message into the engine's input shape.
// Gmail's internal date (epoch millis) doubles as the received timestamp.
func (s *GmailSource) normalize(msg *gmail.Message) model.InboundMessage {
	inbound := model.InboundMessage{
		Mailbox:       s.userEmail,
		MessageID:     msg.Id,
		ThreadID:      msg.ThreadId,
		Snippet:       snippet(msg.Snippet),
		InternalEpoch: msg.InternalDate,
		DedupKey:      DedupKey(s.userEmail, msg.Id),
	}
	if msg.InternalDate > 0 {
		inbound.ReceivedAt = strconv.FormatInt(msg.InternalDate, 10)
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "Subject":
				inbound.Subject = header.Value
			case "From":
				inbound.Sender = header.Value
			case "Date":
				if inbound.ReceivedAt == "" {
					inbound.ReceivedAt = header.Value
				}
			}
		}
	}
	return inbound
}

// Close closes the Gmail source. The API client needs no explicit close.
func (s *GmailSource) Close() error {
	return nil
}
