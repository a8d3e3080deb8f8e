package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between any two Telegram messages to the same chat to avoid
// 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

// TelegramNotifier sends consensus alerts to a Telegram chat. Alerts are
// queued and sent by a background worker so analysis never blocks on the
// Telegram API.
type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	mu       sync.Mutex
	lastSend time.Time

	queue     chan ConsensusAlert
	queueDone chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewTelegramNotifier creates the notifier and verifies the bot token.
// Returns nil on failure; callers fall back to a NoopNotifier.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to get bot info", "error", err)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		queue:     make(chan ConsensusAlert, 100),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	n.wg.Add(1)
	go n.messageSender()

	slog.Info("Telegram notifier initialized", "chat_id", chatID)
	return n
}

// Notify queues an alert without blocking. A full queue drops the alert.
func (n *TelegramNotifier) Notify(alert ConsensusAlert) {
	if n == nil || n.bot == nil {
		return
	}
	select {
	case <-n.ctx.Done():
	case n.queue <- alert:
	default:
		slog.Warn("Telegram message queue is full, dropping alert", "match", alert.MatchName)
	}
}

// Stop stops the notifier and waits for queued alerts to be sent.
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.cancel()
	<-n.queueDone
	n.wg.Wait()
}

func (n *TelegramNotifier) messageSender() {
	defer n.wg.Done()

	for {
		select {
		case <-n.ctx.Done():
			// Drain remaining alerts before exit.
			for {
				select {
				case alert := <-n.queue:
					n.send(alert)
				default:
					close(n.queueDone)
					return
				}
			}
		case alert := <-n.queue:
			n.send(alert)
		}
	}
}

func (n *TelegramNotifier) send(alert ConsensusAlert) {
	msg := tgbotapi.NewMessage(n.chatID, formatConsensusAlert(alert))
	msg.ParseMode = tgbotapi.ModeMarkdown

	n.mu.Lock()
	elapsed := time.Since(n.lastSend)
	if elapsed < telegramSendInterval {
		n.mu.Unlock()
		select {
		case <-n.ctx.Done():
			return
		case <-time.After(telegramSendInterval - elapsed):
		}
		n.mu.Lock()
	}
	n.lastSend = time.Now()
	_, err := n.bot.Send(msg)
	n.mu.Unlock()

	if err != nil {
		slog.Error("Telegram send failed", "match", alert.MatchName, "error", err)
	} else {
		slog.Info("Telegram alert sent", "match", alert.MatchName, "edges", len(alert.Edges), "queue_length", len(n.queue))
	}
}

func formatConsensusAlert(alert ConsensusAlert) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎯 *Consensus Alert (%d/%d)*\n\n", alert.ConsensusLevel, alert.PanelSize))
	b.WriteString(fmt.Sprintf("*%s*\n\n", escapeMarkdown(alert.MatchName)))

	for _, e := range alert.Edges {
		b.WriteString(fmt.Sprintf("📌 %s | %.0f%% confidence\n", e.EdgeType, e.Confidence))
		b.WriteString(fmt.Sprintf("_%s_\n", escapeMarkdown(e.Observation)))
		if len(e.TriggeredRules) > 0 {
			b.WriteString(fmt.Sprintf("Rules: %s\n", escapeMarkdown(strings.Join(e.TriggeredRules, ", "))))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
