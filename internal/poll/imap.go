package poll

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"inbox-triage-go/internal/config"
	"inbox-triage-go/internal/model"
)

// IMAPSource polls one or more IMAP folders of a single account.
type IMAPSource struct {
	client    *client.Client
	account   string
	mailboxes []string
	lastCheck time.Time
}

// NewIMAPSource connects and logs in to the IMAP server.
func NewIMAPSource(cfg *config.MailConfig, mailboxes []string, lookback time.Duration) (*IMAPSource, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(cfg.IMAPUser, cfg.IMAPPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	return &IMAPSource{
		client:    c,
		account:   cfg.IMAPUser,
		mailboxes: mailboxes,
		lastCheck: time.Now().Add(-lookback),
	}, nil
}

// Poll searches each configured folder for messages since the last check.
// A folder that fails to fetch marks the batch as a partial failure but
// does not stop the other folders.
func (s *IMAPSource) Poll(ctx context.Context) (*model.PollBatch, error) {
	started := time.Now()
	batch := &model.PollBatch{
		RunID:     uuid.NewString(),
		StartedAt: started,
	}

	for _, mailbox := range s.mailboxes {
		summary := model.MailboxSummary{Mailbox: mailbox}
		messages, err := s.fetchMailbox(mailbox)
		if err != nil {
			logrus.Warnf("Failed to fetch mailbox %s: %v", mailbox, err)
			summary.Error = err.Error()
			batch.PartialFailure = true
		} else {
			batch.Messages = append(batch.Messages, messages...)
			summary.Fetched = len(messages)
		}
		batch.Summaries = append(batch.Summaries, summary)
	}

	batch.FinishedAt = time.Now()
	s.lastCheck = time.Now()
	return batch, nil
}

func (s *IMAPSource) fetchMailbox(mailbox string) ([]model.InboundMessage, error) {
	if _, err := s.client.Select(mailbox, false); err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = s.lastCheck

	uids, err := s.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}

	ch := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- s.client.Fetch(seqset, items, ch)
	}()

	var inbound []model.InboundMessage
	for msg := range ch {
		normalized, err := s.normalize(mailbox, msg, section)
		if err != nil {
			logrus.Warnf("Failed to parse IMAP message in %s: %v", mailbox, err)
			continue
		}
		inbound = append(inbound, normalized)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return inbound, nil
}

// normalize converts one IMAP message into the engine's input shape.
func (s *IMAPSource) normalize(mailbox string, msg *imap.Message, section *imap.BodySectionName) (model.InboundMessage, error) {
	inbound := model.InboundMessage{
		Mailbox: mailbox,
	}

	if msg.Envelope != nil {
		inbound.Subject = msg.Envelope.Subject
		inbound.MessageID = msg.Envelope.MessageId
		if len(msg.Envelope.From) > 0 {
			from := msg.Envelope.From[0]
			if from.PersonalName != "" {
				inbound.Sender = fmt.Sprintf("%s <%s>", from.PersonalName, from.Address())
			} else {
				inbound.Sender = from.Address()
			}
		}
	}
	if inbound.MessageID == "" {
		inbound.MessageID = fmt.Sprintf("uid-%d", msg.Uid)
	}
	inbound.DedupKey = DedupKey(mailbox, inbound.MessageID)

	if !msg.InternalDate.IsZero() {
		millis := msg.InternalDate.UnixMilli()
		inbound.InternalEpoch = millis
		inbound.ReceivedAt = strconv.FormatInt(millis, 10)
	}

	if body, err := textBody(msg, section); err == nil && body != "" {
		inbound.Snippet = snippet(body)
	}
	return inbound, nil
}

// textBody extracts the first text/plain part of the fetched body section.
func textBody(msg *imap.Message, section *imap.BodySectionName) (string, error) {
	r := msg.GetBody(section)
	if r == nil {
		return "", nil
	}

	entity, err := message.Read(r)
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}

	if mr := entity.MultipartReader(); mr != nil {
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return "", fmt.Errorf("failed to read part: %w", err)
			}
			if strings.Contains(p.Header.Get("Content-Type"), "text/plain") {
				content, err := io.ReadAll(p.Body)
				if err != nil {
					return "", fmt.Errorf("failed to read part body: %w", err)
				}
				return string(content), nil
			}
		}
		return "", nil
	}

	content, err := io.ReadAll(entity.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(content), nil
}

// Close logs out of the IMAP session.
func (s *IMAPSource) Close() error {
	return s.client.Logout()
}
