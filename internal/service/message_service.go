package service

import (
	"context"
	"strings"

	"mutualaid/internal/authz"
	"mutualaid/internal/middleware"
	"mutualaid/internal/models"
	"mutualaid/internal/notifications"
	"mutualaid/internal/repository"
)

const maxMessageLen = 5000

type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	notifier notifications.Publisher
	authz    authorizer
}

// NewMessageService wires the message store. A nil notifier disables realtime delivery.
func NewMessageService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	notifier notifications.Publisher,
	engine *authz.Engine,
) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		notifier: notifier,
		authz:    newAuthorizer(engine),
	}
}

// ListMine returns the caller's sent and received messages, newest first.
func (s *MessageService) ListMine(ctx context.Context, caller authz.Caller, limit, offset int) ([]models.Message, error) {
	if err := s.authz.precheck(caller, authz.ActionRead, authz.KindMessage); err != nil {
		return nil, err
	}
	return s.messages.ListForUser(ctx, caller.UserID, limit, offset)
}

func (s *MessageService) Get(ctx context.Context, caller authz.Caller, id uint) (*models.Message, error) {
	if err := s.authz.precheck(caller, authz.ActionRead, authz.KindMessage); err != nil {
		return nil, err
	}
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.authorize(caller, authz.ActionRead, messageResource(msg)); err != nil {
		return nil, err
	}
	return msg, nil
}

// Send stores a direct message from the caller and notifies the receiver.
func (s *MessageService) Send(ctx context.Context, caller authz.Caller, receiverID uint, content string) (*models.Message, error) {
	if err := s.authz.authorize(caller, authz.ActionCreate, authz.Resource{Kind: authz.KindMessage, OwnerID: caller.UserID}); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message content cannot be empty")
	}
	if len(content) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 5000 characters)")
	}
	if receiverID == 0 {
		return nil, models.NewValidationError("Receiver is required")
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewValidationError("Receiver does not exist")
		}
		return nil, err
	}

	msg := &models.Message{SenderID: caller.UserID, ReceiverID: receiverID, Content: content}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	stored, err := s.messages.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.PublishEvent(ctx, receiverID, notifications.EventMessageReceived, stored); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish message notification",
				"message_id", stored.ID, "receiver_id", receiverID, "error", err)
		}
	}
	return stored, nil
}

// Delete removes a message; either party may do so.
func (s *MessageService) Delete(ctx context.Context, caller authz.Caller, id uint) error {
	if err := s.authz.precheck(caller, authz.ActionDelete, authz.KindMessage); err != nil {
		return err
	}
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.authorize(caller, authz.ActionDelete, messageResource(msg)); err != nil {
		return err
	}
	return s.messages.Delete(ctx, msg.ID)
}

func messageResource(msg *models.Message) authz.Resource {
	return authz.Resource{
		Kind:    authz.KindMessage,
		OwnerID: msg.SenderID,
		Parties: []uint{msg.SenderID, msg.ReceiverID},
	}
}
