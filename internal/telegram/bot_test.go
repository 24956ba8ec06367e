package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/academia-artes/course-assistant/internal/model"
	"github.com/academia-artes/course-assistant/internal/service"
	"github.com/academia-artes/course-assistant/pkg/logger"
)

type fakeAPI struct {
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type mockRouter struct {
	mock.Mock
}

func (m *mockRouter) Handle(ctx context.Context, channel model.Channel, id, text string) ([]model.Reply, error) {
	args := m.Called(ctx, channel, id, text)
	replies, _ := args.Get(0).([]model.Reply)
	return replies, args.Error(1)
}

func (m *mockRouter) StartIntake(ctx context.Context, channel model.Channel, id string) (model.Reply, error) {
	args := m.Called(ctx, channel, id)
	return args.Get(0).(model.Reply), args.Error(1)
}

func (m *mockRouter) Welcome(first bool) model.Reply {
	args := m.Called(first)
	return args.Get(0).(model.Reply)
}

func command(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}
}

func text(chatID int64, s string) *tgbotapi.Message {
	return &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: s}
}

func newBot(r *mockRouter) (*Bot, *fakeAPI) {
	api := &fakeAPI{}
	return NewWithAPI(api, r, logger.NewNop()), api
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(5, model.Reply{Text: "hola"})
	assert.Equal(t, int64(5), msg.ChatID)
	assert.Equal(t, "hola", msg.Text)
	assert.Nil(t, msg.ReplyMarkup)

	msg = NewMessage(5, model.Reply{Text: "hola", Actions: []model.Action{model.ContactAction()}})
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 1)
	button := markup.InlineKeyboard[0][0]
	assert.Equal(t, "📬 Quiero ser contactado", button.Text)
	require.NotNil(t, button.CallbackData)
	assert.Equal(t, model.ActionStartContact, *button.CallbackData)
}

func TestHandleUpdate_Text(t *testing.T) {
	r := &mockRouter{}
	r.On("Handle", mock.Anything, model.ChannelTelegram, "100", "¿precio?").
		Return([]model.Reply{{Text: "uno"}, {Text: "dos"}}, nil)
	b, api := newBot(r)

	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: text(100, "¿precio?")})

	r.AssertExpectations(t)
	require.Len(t, api.sent, 2)
	assert.Equal(t, "uno", api.sent[0].Text)
	assert.Equal(t, "dos", api.sent[1].Text)
}

func TestHandleUpdate_RouterError(t *testing.T) {
	r := &mockRouter{}
	r.On("Handle", mock.Anything, model.ChannelTelegram, "100", "hola").
		Return(nil, errors.New("redis down"))
	b, api := newBot(r)

	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: text(100, "hola")})

	require.Len(t, api.sent, 1)
	assert.Equal(t, service.Unavailable, api.sent[0].Text)
}

func TestHandleUpdate_Commands(t *testing.T) {
	r := &mockRouter{}
	r.On("StartIntake", mock.Anything, model.ChannelTelegram, "100").
		Return(model.Reply{Text: "Por favor, indícame tu nombre completo."}, nil)
	r.On("Welcome", false).Return(model.Reply{Text: "¡Hola!", Actions: []model.Action{model.ContactAction()}})
	b, api := newBot(r)

	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: command(100, "/quiero_contacto")})
	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: command(100, "/inicio")})
	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: command(100, "/desconocido")})

	r.AssertExpectations(t)
	r.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, api.sent, 2)
	assert.Equal(t, "Por favor, indícame tu nombre completo.", api.sent[0].Text)
	assert.Equal(t, "¡Hola!", api.sent[1].Text)
	assert.NotNil(t, api.sent[1].ReplyMarkup)
}

func TestHandleUpdate_Callback(t *testing.T) {
	r := &mockRouter{}
	r.On("StartIntake", mock.Anything, model.ChannelTelegram, "200").
		Return(model.Reply{Text: "Por favor, indícame tu nombre completo."}, nil)
	b, api := newBot(r)

	b.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    model.ActionStartContact,
		Message: text(200, ""),
	}})

	r.AssertExpectations(t)
	assert.Len(t, api.requests, 1)
	require.Len(t, api.sent, 1)
	assert.Equal(t, service.ButtonStart, api.sent[0].Text)
}

func TestHandleUpdate_UnknownCallback(t *testing.T) {
	r := &mockRouter{}
	b, api := newBot(r)

	b.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-2",
		Data:    "otra_cosa",
		Message: text(200, ""),
	}})

	assert.Len(t, api.requests, 1)
	assert.Empty(t, api.sent)
	r.AssertNotCalled(t, "StartIntake", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleUpdate_NewChatMembers(t *testing.T) {
	r := &mockRouter{}
	r.On("Welcome", true).Return(model.Reply{Text: service.Greeting})
	b, api := newBot(r)

	msg := text(300, "")
	msg.NewChatMembers = []tgbotapi.User{{ID: 1, FirstName: "Ana"}}
	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})

	require.Len(t, api.sent, 1)
	assert.Equal(t, service.Greeting, api.sent[0].Text)
}

func TestHandleUpdate_NonText(t *testing.T) {
	r := &mockRouter{}
	b, api := newBot(r)

	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: text(100, "")})

	assert.Empty(t, api.sent)
	r.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
