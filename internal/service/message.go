package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/repository"
)

type MessageService struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	links    repository.MessageLinkRepository
	log      *logrus.Entry
	now      func() time.Time
}

func NewMessageService(store *repository.Store, log *logrus.Entry) *MessageService {
	return &MessageService{
		users:    store.Users,
		messages: store.Messages,
		links:    store.MessageLinks,
		log:      log,
		now:      time.Now,
	}
}

// Send stores a message and links it to both participants.
func (s *MessageService) Send(ctx context.Context, sender *model.User, recipientID, body string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, model.ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > model.MaxMessageLength {
		return nil, model.ErrMessageTooLong
	}
	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}

	msg := &model.Message{
		ID:           uuid.NewString(),
		SenderName:   sender.FullName(),
		Body:         body,
		CreationDate: s.now().UTC(),
	}
	if err := s.messages.Save(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	for _, link := range []model.MessageNewUser{
		{ID: uuid.NewString(), UserID: sender.ID, MessageID: msg.ID, IsSender: true},
		{ID: uuid.NewString(), UserID: recipientID, MessageID: msg.ID, IsSender: false},
	} {
		if err := s.links.Save(ctx, &link); err != nil {
			return nil, fmt.Errorf("save message link: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{"message": msg.ID, "from": sender.ID, "to": recipientID}).Debug("Send OK")
	return msg, nil
}

// Conversation returns the messages shared by userID and otherID, oldest
// first, as seen by userID.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID string) ([]model.ConversationMessage, error) {
	mine, err := s.links.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	theirs, err := s.links.ListByUser(ctx, otherID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	shared := make(map[string]struct{}, len(theirs))
	for _, l := range theirs {
		shared[l.MessageID] = struct{}{}
	}
	isSender := make(map[string]bool)
	var ids []string
	for _, l := range mine {
		if _, ok := shared[l.MessageID]; !ok {
			continue
		}
		if _, dup := isSender[l.MessageID]; !dup {
			ids = append(ids, l.MessageID)
		}
		isSender[l.MessageID] = isSender[l.MessageID] || l.IsSender
	}

	conversation := []model.ConversationMessage{}
	if len(ids) == 0 {
		return conversation, nil
	}

	messages, err := s.messages.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	for _, m := range messages {
		conversation = append(conversation, model.ConversationMessage{Message: m, IsSender: isSender[m.ID]})
	}
	sort.SliceStable(conversation, func(i, j int) bool {
		return conversation[i].CreationDate.Before(conversation[j].CreationDate)
	})
	return conversation, nil
}
