package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client — обертка над Telegram Bot API
type Client struct {
	bot *tgbotapi.BotAPI
}

// NewClient создает новый клиент для работы с Telegram
func NewClient(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Client{bot: api}, nil
}

// SendMessage отправляет текстовое сообщение
func (c *Client) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := c.bot.Send(msg)
	return err
}

// GetUpdatesChan возвращает канал обновлений
func (c *Client) GetUpdatesChan() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	return c.bot.GetUpdatesChan(u)
}

// StopReceivingUpdates останавливает long polling.
func (c *Client) StopReceivingUpdates() {
	c.bot.StopReceivingUpdates()
}

// Username возвращает имя бота, полученное при авторизации.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}
