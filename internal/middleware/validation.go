package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/academia-artes/course-assistant/internal/model"
)

// MaxMessageRunes bounds a single chat message.
const MaxMessageRunes = 4000

// ValidateMessage validates an inbound chat message.
func ValidateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("message cannot be empty")
	}
	if !utf8.ValidString(text) {
		return errors.New("message must be valid UTF-8")
	}
	if utf8.RuneCountInString(text) > MaxMessageRunes {
		return errors.New("message exceeds maximum length")
	}
	return nil
}

// ValidateChannel validates a channel path parameter.
func ValidateChannel(channel string) error {
	switch model.Channel(channel) {
	case model.ChannelTelegram, model.ChannelWeb:
		return nil
	}
	return errors.New("unknown channel")
}

// ValidateConversationID validates a conversation id path parameter.
func ValidateConversationID(id string) error {
	if id == "" {
		return errors.New("conversation ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("conversation ID exceeds maximum length")
	}
	return nil
}
