package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/wellbeing-bot/internal/gateway"
	"github.com/xaenox/wellbeing-bot/internal/history"
	"github.com/xaenox/wellbeing-bot/internal/identity"
	"github.com/xaenox/wellbeing-bot/internal/session"
	"github.com/xaenox/wellbeing-bot/internal/storage"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	storage  storage.Storage
	gateway  *gateway.Client
	sessions *session.Registry
	locks    *profileLocks
	logger   *zap.Logger
}

func New(token string, store storage.Storage, gw *gateway.Client, opts session.Options, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		api:     api,
		storage: store,
		gateway: gw,
		locks:   newProfileLocks(),
		logger:  logger,
	}
	b.sessions = session.NewRegistry(func(profile string) *session.Session {
		return session.New(gw, b.identity(profile), logger.With(zap.String("profile", profile)), opts)
	})
	return b, nil
}

func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) identity(profile string) *identity.Store {
	return identity.NewStore(b.storage, profile, b.logger)
}

func profileOf(message *tgbotapi.Message) string {
	return strconv.FormatInt(message.From.ID, 10)
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if !message.IsCommand() {
		b.sendMessage(message.Chat.ID, "Use /assess to take an assessment or /help to see all commands.")
		return
	}

	// Commands of one profile run one at a time so identity and session
	// changes never interleave.
	unlock := b.locks.lock(profileOf(message))
	defer unlock()

	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "assess":
		b.handleAssess(ctx, message)
	case "result":
		b.handleResult(message)
	case "history":
		b.handleHistory(ctx, message)
	case "delete":
		b.handleDelete(ctx, message)
	case "health":
		b.handleHealth(ctx, message)
	case "model":
		b.handleModel(ctx, message)
	case "features":
		b.handleFeatures(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to the Digital Well-Being check! 🧘
Answer eight quick questions about your social media habits and get a well-being assessment with recommendations.

Your history is kept under an anonymous id. Use /help to see all commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/assess - Take an assessment
/result - Show your latest result
/history - Show your assessment history
/delete - Delete all your history
/health - Check the prediction service
/model - Show model details
/features - Show model features

/assess takes key=value answers, anything omitted uses the default:
age=25 gender=Female screen=5 platform=Instagram
sleep=7 stress=5 offline=2 exercise=3

screen is hours per day (0-24, steps of 0.5), sleep and stress are 1-10,
offline is days per month without social media (0-30), exercise is sessions per week (0-14).`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleAssess(ctx context.Context, message *tgbotapi.Message) {
	input, err := ParseAssessment(message.CommandArguments())
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, err.Error())
		return
	}

	profile := profileOf(message)
	sess := b.sessions.Get(profile)
	if _, err := sess.Submit(ctx, input); err != nil {
		b.logger.Error("Failed to submit assessment",
			zap.Error(err),
			zap.String("profile", profile))
		b.sendErrorMessage(message.Chat.ID, gateway.UserMessage(err, "Failed to get prediction"))
		return
	}

	b.handleResult(message)
}

func (b *Bot) handleResult(message *tgbotapi.Message) {
	in, res, err := b.sessions.Get(profileOf(message)).ReadCurrent()
	if err != nil && !errors.Is(err, session.ErrMissingSession) {
		b.logger.Error("Failed to read session", zap.Error(err))
	}

	text, markdown := ResultReply(in, res, err)
	if markdown {
		b.sendMarkdown(message.Chat.ID, text)
		return
	}
	b.sendMessage(message.Chat.ID, text)
}

func (b *Bot) historyPage(message *tgbotapi.Message) *history.Page {
	profile := profileOf(message)
	vm := history.NewViewModel(b.gateway, b.identity(profile), b.logger.With(zap.String("profile", profile)))
	return history.NewPage(vm)
}

func (b *Bot) handleHistory(ctx context.Context, message *tgbotapi.Message) {
	page := b.historyPage(message)

	switch page.Open(ctx) {
	case history.StateNoHistory:
		b.sendMessage(message.Chat.ID, "No assessments found. Take your first assessment with /assess to start tracking!")
	case history.StateError:
		b.sendErrorMessage(message.Chat.ID, page.Error())
	case history.StateLoaded:
		b.sendMarkdown(message.Chat.ID, FormatHistory(page.Records(), page.Stats()))
	}
}

func (b *Bot) handleDelete(ctx context.Context, message *tgbotapi.Message) {
	if strings.TrimSpace(strings.ToLower(message.CommandArguments())) != "confirm" {
		b.sendMessage(message.Chat.ID, "Are you sure you want to delete all your assessment history? This cannot be undone.\nSend /delete confirm to proceed.")
		return
	}

	page := b.historyPage(message)
	switch page.Open(ctx) {
	case history.StateNoHistory:
		b.sendMessage(message.Chat.ID, "You don't have any history to delete.")
		return
	case history.StateError:
		b.sendErrorMessage(message.Chat.ID, page.Error())
		return
	}

	if err := page.DeleteAll(ctx); err != nil {
		b.sendErrorMessage(message.Chat.ID, err.Error())
		return
	}
	profile := profileOf(message)
	b.sessions.Get(profile).End()
	b.sessions.Drop(profile)
	b.sendMessage(message.Chat.ID, "History deleted successfully")
}

func (b *Bot) handleHealth(ctx context.Context, message *tgbotapi.Message) {
	h, err := b.gateway.Health(ctx)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, gateway.UserMessage(err, "Health check failed"))
		return
	}
	b.sendMarkdown(message.Chat.ID, FormatHealth(h))
}

func (b *Bot) handleModel(ctx context.Context, message *tgbotapi.Message) {
	info, err := b.gateway.ModelInfo(ctx)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, gateway.UserMessage(err, "Failed to load model info"))
		return
	}
	b.sendMarkdown(message.Chat.ID, FormatModelInfo(info))
}

func (b *Bot) handleFeatures(ctx context.Context, message *tgbotapi.Message) {
	info, err := b.gateway.Features(ctx)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, gateway.UserMessage(err, "Failed to load features"))
		return
	}
	b.sendMarkdown(message.Chat.ID, FormatFeatures(info))
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send markdown message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
