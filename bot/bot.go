package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adilzhm/meetmate/repositories"
	"github.com/adilzhm/meetmate/services"
	"github.com/adilzhm/meetmate/verification"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot принимает команды в личных сообщениях: выдаёт коды привязки
// аккаунта и проводит регистрацию новых пользователей пошаговым мастером.
type Bot struct {
	client      *Client
	authService services.AuthService
	userRepo    repositories.UserRepository
	codes       verification.CodeStore
	logger      *slog.Logger

	mu     sync.Mutex
	states map[int64]*registrationState
}

func New(
	client *Client,
	authService services.AuthService,
	userRepo repositories.UserRepository,
	codes verification.CodeStore,
	logger *slog.Logger,
) *Bot {
	return &Bot{
		client:      client,
		authService: authService,
		userRepo:    userRepo,
		codes:       codes,
		logger:      logger,
		states:      make(map[int64]*registrationState),
	}
}

// Run крутит цикл long polling до отмены контекста.
func (b *Bot) Run(ctx context.Context) {
	updates := b.client.GetUpdatesChan()
	b.logger.Info("telegram bot started", "bot", b.client.Username())

	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.Chat.IsPrivate() {
		return
	}
	message := update.Message

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStart(ctx, message)
		case "help":
			b.handleHelp(message)
		case "link", "verify":
			b.handleLink(ctx, message)
		case "register":
			b.handleRegister(ctx, message)
		case "cancel":
			b.handleCancel(message)
		default:
			b.send(message.Chat.ID, "Неизвестная команда. Используйте /help.")
		}
		return
	}

	b.mu.Lock()
	state, exists := b.states[message.From.ID]
	b.mu.Unlock()
	if exists {
		b.handleStateInput(ctx, message, state)
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	if _, err := b.userRepo.GetByTelegramID(ctx, message.From.ID); err == nil {
		b.send(message.Chat.ID, "👋 С возвращением! Ваш Telegram уже привязан к аккаунту MeetMate. Уведомления приходят сюда автоматически.")
		return
	}

	text := `👋 Привет! Я бот MeetMate — помогаю находить компанию для спорта и развлечений.

📋 Команды:
/link - Получить код привязки существующего аккаунта
/register - Создать новый аккаунт прямо здесь
/help - Помощь`
	b.send(message.Chat.ID, text)

	// Незнакомому чату сразу выдаём код: чаще всего сюда приходят
	// именно за привязкой.
	b.handleLink(ctx, message)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	text := `📖 Помощь

/link - Выдаёт одноразовый код. Введите его в настройках профиля на сайте, и уведомления будут приходить сюда.
/verify - То же самое: перевыпустить код привязки.
/register - Пошаговая регистрация нового аккаунта.
/cancel - Отменить текущее действие.`
	b.send(message.Chat.ID, text)
}

// handleLink выдаёт одноразовый код привязки, действительный 10 минут.
func (b *Bot) handleLink(ctx context.Context, message *tgbotapi.Message) {
	if _, err := b.userRepo.GetByTelegramID(ctx, message.From.ID); err == nil {
		b.send(message.Chat.ID, "Ваш Telegram уже привязан к аккаунту.")
		return
	}

	code, err := b.codes.Issue(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("failed to issue telegram link code", "error", err)
		b.send(message.Chat.ID, "❌ Не удалось создать код. Попробуйте позже.")
		return
	}

	b.send(message.Chat.ID, fmt.Sprintf(
		"🔑 Ваш код привязки: <b>%s</b>\n\nВведите его в настройках профиля на сайте. Код одноразовый и действует 10 минут.", code))
}

func (b *Bot) handleRegister(ctx context.Context, message *tgbotapi.Message) {
	if _, err := b.userRepo.GetByTelegramID(ctx, message.From.ID); err == nil {
		b.send(message.Chat.ID, "У вас уже есть аккаунт, привязанный к этому Telegram.")
		return
	}

	b.mu.Lock()
	b.states[message.From.ID] = &registrationState{Step: stepUsername}
	b.mu.Unlock()

	b.send(message.Chat.ID, "📝 Придумайте имя пользователя (латиница, без пробелов):")
}

func (b *Bot) handleCancel(message *tgbotapi.Message) {
	b.mu.Lock()
	_, exists := b.states[message.From.ID]
	delete(b.states, message.From.ID)
	b.mu.Unlock()

	if exists {
		b.send(message.Chat.ID, "Действие отменено.")
	} else {
		b.send(message.Chat.ID, "Нечего отменять.")
	}
}

func (b *Bot) send(chatID int64, text string) {
	if err := b.client.SendMessage(chatID, text); err != nil {
		b.logger.Warn("failed to send telegram message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) clearState(telegramID int64) {
	b.mu.Lock()
	delete(b.states, telegramID)
	b.mu.Unlock()
}

// contextWithTimeout ограничивает обработку одного сообщения.
func contextWithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 15*time.Second)
}

func isConflict(err error) bool {
	return errors.Is(err, services.ErrUsernameTaken) ||
		errors.Is(err, services.ErrEmailTaken) ||
		errors.Is(err, services.ErrTelegramTaken)
}
