package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// LINEClient adapts the LINE SDK client to the lineClient interface.
type LINEClient struct {
	bot *linebot.Client
}

// NewLINEClient creates a LINE Messaging API client from channel credentials.
func NewLINEClient(channelSecret, channelToken string) (*LINEClient, error) {
	bot, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		return nil, fmt.Errorf("creating LINE client: %w", err)
	}
	return &LINEClient{bot: bot}, nil
}

func (c *LINEClient) ParseRequest(r *http.Request) ([]*linebot.Event, error) {
	return c.bot.ParseRequest(r)
}

func (c *LINEClient) ReplyText(ctx context.Context, replyToken string, texts []string) error {
	messages := make([]linebot.SendingMessage, 0, len(texts))
	for _, text := range texts {
		messages = append(messages, linebot.NewTextMessage(text))
	}
	if _, err := c.bot.ReplyMessage(replyToken, messages...).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("replying to LINE: %w", err)
	}
	return nil
}
