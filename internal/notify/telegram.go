// Package notify sends user-facing Telegram messages. Delivery is
// fire-and-forget: a failed send is logged and dropped, it never rolls
// back or blocks the mutation that triggered it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"offerwall/internal/domain"
	"offerwall/internal/logger"
)

type Notifier struct {
	botToken string
	http     *http.Client
}

func New(botToken string) *Notifier {
	return &Notifier{
		botToken: botToken,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts a message to a Telegram chat in the background.
func (n *Notifier) Send(tgID int64, text string) {
	if n == nil || n.botToken == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.send(ctx, tgID, text); err != nil {
			logger.Warn("notification send failed", "tg_id", tgID, "error", err)
		}
	}()
}

func (n *Notifier) send(ctx context.Context, tgID int64, text string) error {
	payload, _ := json.Marshal(map[string]any{
		"chat_id":    tgID,
		"text":       text,
		"parse_mode": "HTML",
	})

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned %d", resp.StatusCode)
	}
	return nil
}

// TaskApproved notifies a user their reward landed.
func (n *Notifier) TaskApproved(tgID int64, payoutNano int64) {
	n.Send(tgID, fmt.Sprintf("✅ Task approved! <b>%s TON</b> added to your balance.", domain.FormatTON(payoutNano)))
}

// ReferralBonus notifies a referrer about a commission.
func (n *Notifier) ReferralBonus(tgID int64, tier int, amountNano int64) {
	n.Send(tgID, fmt.Sprintf("🎉 Tier %d referral bonus: <b>%s TON</b>", tier, domain.FormatTON(amountNano)))
}

// WithdrawalCompleted notifies a user their payout was sent.
func (n *Notifier) WithdrawalCompleted(tgID int64, amountNano int64) {
	n.Send(tgID, fmt.Sprintf("💸 Withdrawal of <b>%s TON</b> completed.", domain.FormatTON(amountNano)))
}

// WithdrawalRejected notifies a user their request was refunded.
func (n *Notifier) WithdrawalRejected(tgID int64, amountNano int64) {
	n.Send(tgID, fmt.Sprintf("↩️ Withdrawal of <b>%s TON</b> was rejected, funds returned to your balance.", domain.FormatTON(amountNano)))
}
