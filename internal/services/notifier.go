package services

import "github.com/welldanyogia/webrana-loveletters-backend/internal/models"

// Notifier pushes letter lifecycle events to connected clients
type Notifier interface {
	// NotifyNewMessage is called once when a letter is delivered to its recipient
	NotifyNewMessage(recipient string, msg *models.Message)
	// NotifyMessageRead is called once when the read marker is first set
	NotifyMessageRead(sender string, msg *models.Message)
}

type noopNotifier struct{}

func (noopNotifier) NotifyNewMessage(string, *models.Message)  {}
func (noopNotifier) NotifyMessageRead(string, *models.Message) {}
