// Package telegram is the chat surface: the download bot and the update
// loop shared with the bridge.
package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the subset of *tgbotapi.BotAPI used here.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Connect authenticates with the bot token.
func Connect(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug
	return api, nil
}

// Handler processes one update.
type Handler func(ctx context.Context, upd tgbotapi.Update)

// Poll long-polls for updates and dispatches them until ctx is done.
// workers <= 1 handles updates in arrival order; more allows that many
// concurrent handlers.
func Poll(ctx context.Context, api BotAPI, workers int, handle Handler) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := api.GetUpdatesChan(cfg)
	defer api.StopReceivingUpdates()

	var wg sync.WaitGroup
	defer wg.Wait()
	sem := make(chan struct{}, max(workers, 1))

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			if workers <= 1 {
				handle(ctx, upd)
				continue
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			wg.Add(1)
			go func() {
				defer func() {
					<-sem
					wg.Done()
				}()
				handle(ctx, upd)
			}()
		}
	}
}
