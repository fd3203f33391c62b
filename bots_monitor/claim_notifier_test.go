package bots_monitor

import (
	"context"
	"errors"
	"os"
	"testing"

	"hot-claimer/internal/features/claim"
	"hot-claimer/internal/infra/log"
	"hot-claimer/internal/infra/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetConsole(nil)
	os.Exit(m.Run())
}

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func successResult() claim.Result {
	return claim.Result{
		AccountID:       "alice.tg",
		TransactionHash: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		Amounts: []claim.OwnerAmount{
			{OwnerID: "alice.tg", RawAmount: "1500000", Amount: "1.500000"},
			{OwnerID: "village-42.tg", RawAmount: "150000", Amount: "0.150000"},
		},
		TotalBalance: "42.000000",
		Success:      true,
	}
}

func TestFormatClaimMessage(t *testing.T) {
	got := FormatClaimMessage(successResult(), "https://nearblocks.io/txns/")

	want := "*Claimed HOT* for alice.tg 🔥\n\n" +
		"*Amount*:\n" +
		"- 1.500000 HOT (for user)\n" +
		"- 0.150000 HOT (for village)\n\n" +
		"*Total HOT balance*: 42.000000 HOT\n\n" +
		"*Tx*: https://nearblocks.io/txns/9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	assert.Equal(t, want, got)
}

func TestFormatClaimMessage_WithoutBalanceAndExtraRecipients(t *testing.T) {
	r := claim.Result{
		AccountID:       "bob_1.tg",
		TransactionHash: "Tx",
		Amounts: []claim.OwnerAmount{
			{OwnerID: "bob_1.tg", Amount: "2.000000"},
			{OwnerID: "ref_er.tg", Amount: "0.010000"},
		},
		Success: true,
	}

	got := FormatClaimMessage(r, "https://nearblocks.io/txns")

	want := "*Claimed HOT* for bob\\_1.tg 🔥\n\n" +
		"*Amount*:\n" +
		"- 2.000000 HOT (for user)\n" +
		"- 0.000000 HOT (for village)\n" +
		"- 0.010000 HOT (for ref\\_er.tg)\n\n" +
		"*Tx*: https://nearblocks.io/txns/Tx"
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "Total HOT balance")
}

func TestFormatFailureMessage(t *testing.T) {
	r := claim.Result{AccountID: "alice.tg", Error: "claim: rpc error *INVALID_NONCE*"}
	assert.Equal(t, "*Claim failed* for alice.tg ❌\n\n*Error*: claim: rpc error \\*INVALID\\_NONCE\\*", FormatFailureMessage(r))

	assert.Contains(t, FormatFailureMessage(claim.Result{AccountID: "x.tg"}), "unknown error")
}

func TestClaimNotifier_Disabled(t *testing.T) {
	sender := &fakeSender{}
	n := NewClaimNotifier(sender, 42, false, "")

	n.Notify(context.Background(), successResult())
	n.Notify(context.Background(), claim.Result{AccountID: "b.tg", Error: "boom"})

	assert.False(t, n.Enabled())
	assert.Empty(t, sender.sent)

	assert.False(t, NewClaimNotifier(nil, 42, true, "").Enabled(), "no sender means disabled")
}

func TestClaimNotifier_SendsEveryAttempt(t *testing.T) {
	sender := &fakeSender{}
	n := NewClaimNotifier(sender, 42, true, "https://nearblocks.io/txns/")
	before := testutil.ToFloat64(metrics.NotificationsTotal.WithLabelValues("sent"))

	n.Notify(context.Background(), successResult())
	n.Notify(context.Background(), claim.Result{AccountID: "b.tg", Error: "boom"})

	require.Len(t, sender.sent, 2)
	for _, msg := range sender.sent {
		assert.Equal(t, int64(42), msg.ChatID)
		assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
		assert.True(t, msg.DisableWebPagePreview)
	}
	assert.Contains(t, sender.sent[0].Text, "*Claimed HOT*")
	assert.Contains(t, sender.sent[1].Text, "*Claim failed*")
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.NotificationsTotal.WithLabelValues("sent")))
}

func TestClaimNotifier_SendErrorIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("Forbidden: bot was blocked by the user")}
	n := NewClaimNotifier(sender, 42, true, "")
	before := testutil.ToFloat64(metrics.NotificationsTotal.WithLabelValues("error"))

	assert.NotPanics(t, func() { n.Notify(context.Background(), successResult()) })
	assert.Len(t, sender.sent, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.NotificationsTotal.WithLabelValues("error")))
}

func TestTxLink(t *testing.T) {
	assert.Equal(t, "https://x.io/txns/h", TxLink("https://x.io/txns/", "h"))
	assert.Equal(t, "https://x.io/txns/h", TxLink("https://x.io/txns", "h"))
	assert.Equal(t, "h", TxLink("", "h"))
}
