package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message represents a private letter between two users
type Message struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Sender     string     `gorm:"not null;size:64;index:idx_messages_sender" json:"sender"`
	Recipient  string     `gorm:"size:64;index:idx_messages_recipient" json:"recipient"`
	Content    string     `gorm:"type:text" json:"content"`
	SecretCode *string    `gorm:"size:255" json:"-"`
	IsDraft    bool       `gorm:"not null;default:false;index" json:"is_draft"`
	CreatedAt  time.Time  `gorm:"not null;index" json:"created_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// IsGated reports whether the letter requires a secret code before its
// recipient may read it.
func (m *Message) IsGated() bool {
	return m.SecretCode != nil && *m.SecretCode != ""
}

// IsRead reports whether the read marker has been set.
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// MessageView is the caller-specific projection of a Message.
// Content is empty and Locked is true while a gated letter is still
// locked for its recipient.
type MessageView struct {
	ID         string     `json:"id"`
	Sender     string     `json:"sender"`
	Recipient  string     `json:"recipient"`
	Content    string     `json:"content,omitempty"`
	SecretCode string     `json:"secret_code,omitempty"`
	HasSecret  bool       `json:"has_secret"`
	Locked     bool       `json:"locked"`
	IsDraft    bool       `json:"is_draft"`
	CreatedAt  time.Time  `json:"created_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

// ViewFor projects the message for the given caller. The sender always
// gets the full record; the recipient of a gated letter gets no content
// until the read marker is set.
func (m *Message) ViewFor(caller string) MessageView {
	v := MessageView{
		ID:        m.ID,
		Sender:    m.Sender,
		Recipient: m.Recipient,
		HasSecret: m.IsGated(),
		IsDraft:   m.IsDraft,
		CreatedAt: m.CreatedAt,
		ReadAt:    m.ReadAt,
	}

	if caller == m.Sender {
		v.Content = m.Content
		if m.IsGated() {
			v.SecretCode = *m.SecretCode
		}
		return v
	}

	if m.IsGated() && !m.IsRead() {
		v.Locked = true
		return v
	}

	v.Content = m.Content
	return v
}
