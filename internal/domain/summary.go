package domain

import "time"

type ConversationMessage struct {
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type Summary struct {
	Sentences    []string  `json:"sentences"`
	Topics       []string  `json:"topics"`
	Sentiment    string    `json:"sentiment"`
	MessageCount int       `json:"message_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}
