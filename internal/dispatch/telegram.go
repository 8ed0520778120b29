package dispatch

import (
	"context"
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"bonjourarcade/internal/compose"
	"bonjourarcade/pkg/logx"
)

// sendTelegramChannel delivers the plain body through the Bot API. The
// channel's env variable holds the bot token; the target chat comes from
// the channel spec.
func (d *Dispatcher) sendTelegramChannel(ctx context.Context, content compose.Content, ch Channel, token string) error {
	if ch.Spec.ChatID == 0 {
		return errors.New("telegram channel requires chat_id")
	}
	text := compose.WithBold(content.PlainBody, boldFor(ch.Spec.Type))

	if d.dryRun {
		d.log.Info("dry run, telegram message not sent",
			logx.String("channel", ch.Label),
			logx.Int64("chat_id", ch.Spec.ChatID))
		return nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.tgSend(ctx, token, ch.Spec.ChatID, text)
}

// sendTelegram is the production delivery path. Offline settings skip
// the getMe handshake; a one-shot announcement has no long poller.
func sendTelegram(_ context.Context, token string, chatID int64, text string) error {
	bot, err := tele.NewBot(tele.Settings{Token: token, Offline: true})
	if err != nil {
		return fmt.Errorf("init telegram bot: %w", err)
	}
	_, err = bot.Send(&tele.Chat{ID: chatID}, text, tele.ModeMarkdown)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
