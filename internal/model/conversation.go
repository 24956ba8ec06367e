// Package model defines data structures shared by the assistant's components.
package model

// ConversationID identifies a chat or widget session across turns. It is a
// Telegram chat id or a web client address; uniqueness only holds per channel.
type ConversationID string

// Channel is the transport a conversation arrives on.
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelWeb      Channel = "web"
)

// ConversationKey namespaces a conversation id by its channel.
type ConversationKey struct {
	Channel Channel
	ID      ConversationID
}

// String renders the key as "<channel>:<id>", the form used by stores.
func (k ConversationKey) String() string {
	return string(k.Channel) + ":" + string(k.ID)
}

// Key builds a ConversationKey.
func Key(channel Channel, id string) ConversationKey {
	return ConversationKey{Channel: channel, ID: ConversationID(id)}
}
