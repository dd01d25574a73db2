// Package bot is the Telegram-facing shim: it maps updates into dialog
// events and ingest posts, and renders dialog replies back through the
// Bot API.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/habotlola-gif/poizon-bot/internal/dialog"
	"github.com/habotlola-gif/poizon-bot/internal/ingest"
)

// Mode selects how source-channel posts reach the catalog.
type Mode string

const (
	// ModePush ingests each channel post as its update arrives.
	ModePush Mode = "push"
	// ModePoll queues channel posts for the periodic pull loop.
	ModePoll Mode = "poll"
)

type Config struct {
	Token   string
	AdminID int64
	Mode    Mode
}

type Bot struct {
	api     *tgbotapi.BotAPI
	engine  *dialog.Engine
	ingest  *ingest.Ingestor
	queue   *ingest.QueueSource
	adminID int64
	mode    Mode
	log     zerolog.Logger
}

func New(cfg Config, engine *dialog.Engine, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log.Info().Str("account", api.Self.UserName).Msg("authorized")

	return &Bot{
		api:     api,
		engine:  engine,
		adminID: cfg.AdminID,
		mode:    cfg.Mode,
		log:     log.With().Str("component", "bot").Logger(),
	}, nil
}

// AttachIngestor wires the ingestion pipeline. In poll mode queue is the
// Source the pull loop drains; in push mode it is nil.
func (b *Bot) AttachIngestor(g *ingest.Ingestor, queue *ingest.QueueSource) {
	b.ingest = g
	b.queue = queue
}

// NotifyAdmin implements ingest.Notifier.
func (b *Bot) NotifyAdmin(text string) {
	b.send(dialog.Reply{ChatID: b.adminID, Text: text})
}

// Run processes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(update)
		}
	}
}

func (b *Bot) dispatch(update tgbotapi.Update) {
	switch {
	case update.ChannelPost != nil:
		b.handleChannelPost(update.ChannelPost)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(update.Message)
	case update.Message != nil:
		b.handleMessage(update.Message)
	}
}

func (b *Bot) handleChannelPost(msg *tgbotapi.Message) {
	if b.ingest == nil {
		return
	}
	if msg.Chat.ID != b.ingest.ChannelID() {
		return
	}

	post := ingest.Post{
		ID:        int64(msg.MessageID),
		ChannelID: msg.Chat.ID,
		Caption:   msg.Caption,
		PhotoID:   photoID(msg),
	}

	if b.mode == ModePoll && b.queue != nil {
		b.queue.Add(post)
		return
	}
	b.ingest.HandlePost(post)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	ev := dialog.Event{
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Username: msg.From.UserName,
	}

	switch msg.Command() {
	case "start":
		ev.Action = "start"
	case "admin":
		ev.Action = "admin"
	case "cancel":
		ev.Action = "cancel"
	case "interval":
		b.handleInterval(msg)
		return
	default:
		b.send(dialog.Reply{ChatID: msg.Chat.ID, Text: "Unknown command. Try /start."})
		return
	}

	b.sendAll(b.engine.Handle(ev))
}

// handleInterval lets the admin retune the pull-loop polling interval at
// runtime. The change applies from the next loop iteration.
func (b *Bot) handleInterval(msg *tgbotapi.Message) {
	if msg.From.ID != b.adminID {
		b.log.Warn().Int64("user_id", msg.From.ID).Msg("interval command from non-admin dropped")
		return
	}
	if b.ingest == nil {
		b.send(dialog.Reply{ChatID: msg.Chat.ID, Text: "Ingestion is not configured."})
		return
	}

	secs, err := strconv.Atoi(msg.CommandArguments())
	if err != nil || secs < 1 {
		b.send(dialog.Reply{ChatID: msg.Chat.ID, Text: "Usage: /interval <seconds>"})
		return
	}

	b.ingest.SetInterval(time.Duration(secs) * time.Second)
	b.send(dialog.Reply{ChatID: msg.Chat.ID, Text: fmt.Sprintf("⏱ Poll interval set to %ds.", secs)})
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	ev := dialog.Event{
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Username: msg.From.UserName,
		Text:     msg.Text,
		PhotoID:  photoID(msg),
	}
	if ev.Text == "" {
		ev.Text = msg.Caption
	}
	b.sendAll(b.engine.Handle(ev))
}

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.Error().Err(err).Msg("failed to answer callback")
	}
	if cq.Message == nil {
		return
	}

	ev := dialog.Event{
		UserID:   cq.From.ID,
		ChatID:   cq.Message.Chat.ID,
		Username: cq.From.UserName,
		Action:   cq.Data,
	}

	replies := b.engine.Handle(ev)
	for i, reply := range replies {
		// Edit the originating message in place for the first reply so
		// menus don't pile up; photo cards replace it instead.
		if i == 0 && reply.ChatID == ev.ChatID {
			if reply.PhotoID == "" {
				b.editMessage(cq.Message, reply)
				continue
			}
			b.deleteMessage(cq.Message)
		}
		b.send(reply)
	}
}

func (b *Bot) editMessage(msg *tgbotapi.Message, reply dialog.Reply) {
	var err error
	if kb := keyboard(reply.Menu); kb != nil {
		edit := tgbotapi.NewEditMessageTextAndMarkup(msg.Chat.ID, msg.MessageID, reply.Text, *kb)
		_, err = b.api.Send(edit)
	} else {
		edit := tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, reply.Text)
		_, err = b.api.Send(edit)
	}
	if err != nil {
		b.log.Error().Err(err).Msg("failed to edit message")
		b.send(reply)
	}
}

func (b *Bot) deleteMessage(msg *tgbotapi.Message) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.log.Error().Err(err).Msg("failed to delete message")
	}
}

func (b *Bot) sendAll(replies []dialog.Reply) {
	for _, reply := range replies {
		b.send(reply)
	}
}

func (b *Bot) send(reply dialog.Reply) {
	var msg tgbotapi.Chattable
	if reply.PhotoID != "" {
		photo := tgbotapi.NewPhoto(reply.ChatID, tgbotapi.FileID(reply.PhotoID))
		photo.Caption = reply.Text
		if kb := keyboard(reply.Menu); kb != nil {
			photo.ReplyMarkup = kb
		}
		msg = photo
	} else {
		text := tgbotapi.NewMessage(reply.ChatID, reply.Text)
		if kb := keyboard(reply.Menu); kb != nil {
			text.ReplyMarkup = kb
		}
		msg = text
	}

	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", reply.ChatID).Msg("failed to send message")
	}
}

func keyboard(menu [][]dialog.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(menu) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(menu))
	for _, row := range menu {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Action))
		}
		rows = append(rows, buttons)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func photoID(msg *tgbotapi.Message) string {
	if len(msg.Photo) == 0 {
		return ""
	}
	return msg.Photo[len(msg.Photo)-1].FileID
}
