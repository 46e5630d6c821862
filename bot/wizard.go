package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/adilzhm/meetmate/services"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Шаги мастера регистрации.
const (
	stepUsername  = "awaiting_username"
	stepPassword  = "awaiting_password"
	stepEmail     = "awaiting_email"
	stepFirstName = "awaiting_first_name"
	stepLastName  = "awaiting_last_name"
)

type registrationState struct {
	Step      string
	Username  string
	Password  string
	Email     string
	FirstName string
}

func (b *Bot) handleStateInput(ctx context.Context, message *tgbotapi.Message, state *registrationState) {
	switch state.Step {
	case stepUsername:
		username := strings.TrimSpace(message.Text)
		if username == "" || strings.ContainsAny(username, " \t") {
			b.send(message.Chat.ID, "❌ Имя пользователя не должно содержать пробелов. Попробуйте ещё раз:")
			return
		}

		opCtx, cancel := contextWithTimeout(ctx)
		taken, err := b.authService.UsernameTaken(opCtx, username)
		cancel()
		if err != nil {
			b.logger.Error("failed to check username", "error", err)
			b.send(message.Chat.ID, "❌ Не удалось проверить имя. Попробуйте ещё раз:")
			return
		}
		if taken {
			b.send(message.Chat.ID, "❌ Это имя уже занято. Введите другое:")
			return
		}

		state.Username = username
		state.Step = stepPassword
		b.send(message.Chat.ID, "🔒 Введите пароль (не короче 8 символов):")

	case stepPassword:
		if len(message.Text) < 8 {
			b.send(message.Chat.ID, "❌ Пароль слишком короткий. Минимум 8 символов:")
			return
		}
		state.Password = message.Text
		state.Step = stepEmail
		b.send(message.Chat.ID, "📧 Введите email (или «-», чтобы пропустить):")

	case stepEmail:
		email := strings.TrimSpace(message.Text)
		if email == "-" {
			email = ""
		} else if email != "" && !strings.Contains(email, "@") {
			b.send(message.Chat.ID, "❌ Это не похоже на email. Попробуйте ещё раз (или «-», чтобы пропустить):")
			return
		}
		state.Email = email
		state.Step = stepFirstName
		b.send(message.Chat.ID, "👤 Введите имя:")

	case stepFirstName:
		state.FirstName = strings.TrimSpace(message.Text)
		state.Step = stepLastName
		b.send(message.Chat.ID, "👤 Введите фамилию:")

	case stepLastName:
		lastName := strings.TrimSpace(message.Text)

		opCtx, cancel := contextWithTimeout(ctx)
		user, err := b.authService.RegisterFromTelegram(opCtx, services.TelegramRegisterInput{
			TelegramID: message.From.ID,
			Username:   state.Username,
			Email:      state.Email,
			Password:   state.Password,
			FirstName:  state.FirstName,
			LastName:   lastName,
		})
		cancel()
		if err != nil {
			if isConflict(err) {
				b.send(message.Chat.ID, "❌ "+err.Error()+"\nНачните заново: /register")
			} else {
				b.logger.Error("telegram registration failed", "error", err)
				b.send(message.Chat.ID, "❌ Не удалось создать аккаунт. Попробуйте позже.")
			}
			b.clearState(message.From.ID)
			return
		}

		b.clearState(message.From.ID)
		b.send(message.Chat.ID, fmt.Sprintf(
			"✅ Аккаунт создан!\n\n👤 %s\nTelegram привязан, уведомления будут приходить сюда. Войдите на сайте с вашим именем пользователя и паролем.",
			user.Username))
	}
}
