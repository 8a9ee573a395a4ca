package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"offerwall/internal/domain"
	"offerwall/internal/logger"
	"offerwall/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminBot exposes the operations surface over Telegram: platform
// stats, the withdrawal review queue and user moderation. Only the
// configured admin ids get a response; everyone else is ignored.
type AdminBot struct {
	bot         *tgbotapi.BotAPI
	admin       *service.AdminService
	withdrawals *service.WithdrawalService
	adminIDs    []int64
	stopCh      chan struct{}
	wg          sync.WaitGroup
	log         *slog.Logger
}

func NewAdminBot(token string, admin *service.AdminService, withdrawals *service.WithdrawalService, adminIDs []int64) (*AdminBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "admin_bot")
	log.Info("admin bot authorized", "username", api.Self.UserName)

	return &AdminBot{
		bot:         api,
		admin:       admin,
		withdrawals: withdrawals,
		adminIDs:    adminIDs,
		stopCh:      make(chan struct{}),
		log:         log,
	}, nil
}

// Start runs the update loop until Stop is called.
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.isAdmin(update.Message.From.ID) {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop gracefully stops the bot.
func (b *AdminBot) Stop() {
	close(b.stopCh)
	b.bot.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *AdminBot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *AdminBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var response string

	switch msg.Command() {
	case "start", "help":
		response = b.helpMessage()
	case "stats":
		response = b.handleStats(ctx)
	case "pending":
		response = b.handlePending(ctx)
	case "approve":
		response = b.handleApprove(ctx, msg.CommandArguments())
	case "reject":
		response = b.handleReject(ctx, msg.CommandArguments())
	case "ban":
		response = b.handleUserStatus(ctx, msg.CommandArguments(), b.admin.BanUser, "banned")
	case "suspend":
		response = b.handleUserStatus(ctx, msg.CommandArguments(), b.admin.SuspendUser, "suspended")
	case "unban", "reactivate":
		response = b.handleUserStatus(ctx, msg.CommandArguments(), b.admin.ReactivateUser, "reactivated")
	case "adjust":
		response = b.handleAdjust(ctx, msg.CommandArguments())
	case "alerts":
		response = b.handleAlerts(ctx)
	default:
		response = "Unknown command, see /help"
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = "HTML"
	if _, err := b.bot.Send(reply); err != nil {
		b.log.Error("send reply failed", "error", err)
	}
}

func (b *AdminBot) helpMessage() string {
	return strings.Join([]string{
		"<b>Commands</b>",
		"/stats - platform totals",
		"/pending - withdrawal review queue",
		"/approve &lt;id&gt; [tx_hash] - complete a withdrawal",
		"/reject &lt;id&gt; &lt;reason&gt; - reject and refund",
		"/ban /suspend /reactivate &lt;user_id&gt;",
		"/adjust &lt;user_id&gt; &lt;nano&gt; &lt;reason&gt; - manual balance correction",
		"/alerts - open fraud alerts",
	}, "\n")
}

func (b *AdminBot) handleStats(ctx context.Context) string {
	stats, err := b.admin.Stats(ctx)
	if err != nil {
		return "failed to load stats: " + err.Error()
	}
	return fmt.Sprintf(
		"<b>Platform</b>\nusers: %d\nactive offers: %d\ntasks approved: %d\npaid out: %s TON\noutstanding: %s TON\npending withdrawals: %d\nopen alerts: %d",
		stats.TotalUsers, stats.ActiveOffers, stats.TasksApproved,
		domain.FormatTON(stats.TotalPaidNano), domain.FormatTON(stats.BalanceOutstanding),
		stats.PendingWithdrawals, stats.OpenFraudAlerts,
	)
}

func (b *AdminBot) handlePending(ctx context.Context) string {
	ws, err := b.withdrawals.ListPending(ctx, 20)
	if err != nil {
		return "failed to load queue: " + err.Error()
	}
	if len(ws) == 0 {
		return "queue is empty"
	}

	var sb strings.Builder
	sb.WriteString("<b>Pending withdrawals</b>\n")
	for _, w := range ws {
		fmt.Fprintf(&sb, "#%d user %d: %s TON to %s…\n",
			w.ID, w.UserID, domain.FormatTON(w.AmountNano), shorten(w.WalletAddress))
	}
	return sb.String()
}

func (b *AdminBot) handleApprove(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return "usage: /approve <id> [tx_hash]"
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "bad withdrawal id"
	}
	txHash := ""
	if len(parts) > 1 {
		txHash = parts[1]
	}

	if err := b.withdrawals.Approve(ctx, id, txHash); err != nil {
		return "approve failed: " + err.Error()
	}
	return fmt.Sprintf("withdrawal #%d completed", id)
}

func (b *AdminBot) handleReject(ctx context.Context, args string) string {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 {
		return "usage: /reject <id> <reason>"
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "bad withdrawal id"
	}

	if err := b.withdrawals.Reject(ctx, id, parts[1]); err != nil {
		return "reject failed: " + err.Error()
	}
	return fmt.Sprintf("withdrawal #%d rejected, amount refunded", id)
}

func (b *AdminBot) handleUserStatus(ctx context.Context, args string, fn func(context.Context, int64) error, verb string) string {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "usage: /<command> <user_id>"
	}
	if err := fn(ctx, id); err != nil {
		return "failed: " + err.Error()
	}
	return fmt.Sprintf("user %d %s", id, verb)
}

func (b *AdminBot) handleAdjust(ctx context.Context, args string) string {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 3)
	if len(parts) < 3 {
		return "usage: /adjust <user_id> <nano> <reason>"
	}
	userID, err1 := strconv.ParseInt(parts[0], 10, 64)
	amount, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil {
		return "bad user id or amount"
	}

	tx, err := b.admin.Adjust(ctx, userID, amount, parts[2])
	if err != nil {
		return "adjustment failed: " + err.Error()
	}
	return fmt.Sprintf("adjusted user %d by %s TON, balance now %s TON",
		userID, domain.FormatTON(amount), domain.FormatTON(tx.BalanceAfterNano))
}

func (b *AdminBot) handleAlerts(ctx context.Context) string {
	alerts, err := b.admin.OpenAlerts(ctx, 20)
	if err != nil {
		return "failed to load alerts: " + err.Error()
	}
	if len(alerts) == 0 {
		return "no open alerts"
	}

	var sb strings.Builder
	sb.WriteString("<b>Open fraud alerts</b>\n")
	for _, a := range alerts {
		fmt.Fprintf(&sb, "#%d user %d score %d: %s\n",
			a.ID, a.UserID, a.RiskScore, strings.Join(a.Flags, ", "))
	}
	return sb.String()
}

func shorten(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:8]
}
