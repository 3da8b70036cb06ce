package model

import "time"

type Message struct {
	ID           string    `db:"id" json:"id"`
	SenderName   string    `db:"sender_name" json:"sender_name"`
	Body         string    `db:"body" json:"body"`
	CreationDate time.Time `db:"creation_date" json:"creation_date"`
}

// MessageNewUser links a message to one participant. Each message has one
// link for the sender and one for the recipient.
type MessageNewUser struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	MessageID string `db:"message_id" json:"message_id"`
	IsSender  bool   `db:"is_sender" json:"is_sender"`
}

// ConversationMessage is a message as seen by one participant.
type ConversationMessage struct {
	Message
	IsSender bool `json:"is_sender"`
}

const MaxMessageLength = 4000
