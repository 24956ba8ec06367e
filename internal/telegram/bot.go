// Package telegram connects the router to a Telegram bot over long polling.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/academia-artes/course-assistant/internal/model"
	"github.com/academia-artes/course-assistant/internal/service"
	"github.com/academia-artes/course-assistant/pkg/logger"
)

const (
	pollTimeout = 30
	maxInFlight = 16
)

// Router is what the bot needs from the service layer.
type Router interface {
	Handle(ctx context.Context, channel model.Channel, id, text string) ([]model.Reply, error)
	StartIntake(ctx context.Context, channel model.Channel, id string) (model.Reply, error)
	Welcome(first bool) model.Reply
}

// API is the subset of the Telegram client used to answer updates.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot dispatches Telegram updates to a Router.
type Bot struct {
	api    API
	client *tgbotapi.BotAPI
	router Router
	logger *logger.Logger
}

// New authenticates against Telegram and returns a Bot ready to Run.
func New(token string, router Router, log *logger.Logger) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	b := NewWithAPI(client, router, log)
	b.client = client
	b.logger.Info("telegram bot authorized", zap.String("username", client.Self.UserName))
	return b, nil
}

// NewWithAPI builds a Bot over an existing API, for tests.
func NewWithAPI(api API, router Router, log *logger.Logger) *Bot {
	return &Bot{
		api:    api,
		router: router,
		logger: log.Component("telegram"),
	}
}

// Run long-polls for updates until ctx is cancelled, then waits for the
// updates in flight.
func (b *Bot) Run(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("telegram bot has no polling client")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.client.GetUpdatesChan(u)

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(maxInFlight)

	defer func() {
		b.client.StopReceivingUpdates()
		g.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("telegram polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			g.Go(func() error {
				b.HandleUpdate(gctx, update)
				return nil
			})
		}
	}
}

// HandleUpdate processes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	id := strconv.FormatInt(chatID, 10)

	if len(msg.NewChatMembers) > 0 {
		b.reply(chatID, b.router.Welcome(true))
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case model.CommandContact:
			b.startIntake(ctx, chatID, "")
		case model.CommandStart:
			b.reply(chatID, b.router.Welcome(false))
		}
		return
	}

	if msg.Text == "" {
		return
	}

	replies, err := b.router.Handle(ctx, model.ChannelTelegram, id, msg.Text)
	if err != nil {
		b.logger.WithConversation(string(model.ChannelTelegram), id).Error("failed to handle message", zap.Error(err))
		replies = append(replies, model.Reply{Text: service.Unavailable})
	}
	for _, r := range replies {
		b.reply(chatID, r)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}
	if cb.Message == nil || cb.Data != model.ActionStartContact {
		return
	}
	b.startIntake(ctx, cb.Message.Chat.ID, service.ButtonStart)
}

// startIntake restarts the form. A non-empty prompt replaces the default
// first question.
func (b *Bot) startIntake(ctx context.Context, chatID int64, prompt string) {
	id := strconv.FormatInt(chatID, 10)
	reply, err := b.router.StartIntake(ctx, model.ChannelTelegram, id)
	if err != nil {
		b.logger.WithConversation(string(model.ChannelTelegram), id).Error("failed to start intake", zap.Error(err))
		reply = model.Reply{Text: service.Unavailable}
	} else if prompt != "" {
		reply.Text = prompt
	}
	b.reply(chatID, reply)
}

func (b *Bot) reply(chatID int64, r model.Reply) {
	if _, err := b.api.Send(NewMessage(chatID, r)); err != nil {
		b.logger.Error("failed to send telegram message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// NewMessage renders a reply, with its actions as a one-row inline keyboard.
func NewMessage(chatID int64, r model.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if len(r.Actions) == 0 {
		return msg
	}
	buttons := make([]tgbotapi.InlineKeyboardButton, len(r.Actions))
	for i, a := range r.Actions {
		buttons[i] = tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Data)
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons)
	return msg
}
