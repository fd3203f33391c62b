package claim

import (
	"context"
	"errors"
	"os"
	"testing"

	"hot-claimer/internal/clients_api/near"
	"hot-claimer/internal/features/accounts"
	"hot-claimer/internal/infra/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetConsole(nil)
	os.Exit(m.Run())
}

type call struct {
	contractID string
	method     string
	args       any
}

type fakeAccount struct {
	id         string
	tx         *near.TransactionResult
	claimErr   error
	balance    []byte
	balanceErr error
	panicMsg   string
	calls      []call
}

func (f *fakeAccount) FunctionCall(ctx context.Context, contractID, method string, args any, gas uint64) (*near.TransactionResult, error) {
	f.calls = append(f.calls, call{contractID, method, args})
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.tx, f.claimErr
}

func (f *fakeAccount) ViewFunction(ctx context.Context, contractID, method string, args any) ([]byte, error) {
	f.calls = append(f.calls, call{contractID, method, args})
	return f.balance, f.balanceErr
}

type recordingNotifier struct {
	results []Result
}

func (n *recordingNotifier) Notify(ctx context.Context, r Result) {
	n.results = append(n.results, r)
}

func okTx(hash string, logs ...string) *near.TransactionResult {
	return &near.TransactionResult{Hash: hash, Actions: 1, Logs: logs}
}

func connectorFor(accs map[string]*fakeAccount, connectErr map[string]error) Connector {
	return func(cred accounts.Credential) (ChainAccount, error) {
		if err := connectErr[cred.AccountID]; err != nil {
			return nil, err
		}
		return accs[cred.AccountID], nil
	}
}

func creds(ids ...string) []accounts.Credential {
	out := make([]accounts.Credential, len(ids))
	for i, id := range ids {
		out[i] = accounts.Credential{PrivateKey: "ed25519:k", AccountID: id, Line: i + 1}
	}
	return out
}

func TestExecutor_ClaimSuccess(t *testing.T) {
	acc := &fakeAccount{
		tx: okTx("Tx1",
			`EVENT_JSON:{"standard":"nep141","event":"ft_mint","data":[{"owner_id":"alice.tg","amount":"1500000"}]}`,
			`EVENT_JSON:{"standard":"nep141","event":"ft_mint","data":[{"owner_id":"village-1.tg","amount":"150000"}]}`,
		),
		balance: []byte(`"42000000"`),
	}
	notifier := &recordingNotifier{}
	ex := NewExecutor(connectorFor(map[string]*fakeAccount{"alice.tg": acc}, nil), notifier, Options{FetchBalance: true})

	result := ex.Claim(context.Background(), creds("alice.tg")[0])

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "Tx1", result.TransactionHash)
	assert.Equal(t, []OwnerAmount{
		{OwnerID: "alice.tg", RawAmount: "1500000", Amount: "1.500000"},
		{OwnerID: "village-1.tg", RawAmount: "150000", Amount: "0.150000"},
	}, result.Amounts)
	assert.Equal(t, "42.000000", result.TotalBalance)

	require.Len(t, acc.calls, 2)
	assert.Equal(t, call{"game.hot.tg", "claim", map[string]any{}}, acc.calls[0])
	assert.Equal(t, call{"game.hot.tg", "ft_balance_of", map[string]string{"account_id": "alice.tg"}}, acc.calls[1])

	require.Len(t, notifier.results, 1)
	assert.Equal(t, result, notifier.results[0])
}

func TestExecutor_NoEventsStillSucceeds(t *testing.T) {
	acc := &fakeAccount{tx: okTx("Tx2", "nothing to see")}
	ex := NewExecutor(connectorFor(map[string]*fakeAccount{"alice.tg": acc}, nil), nil, Options{})

	result := ex.Claim(context.Background(), creds("alice.tg")[0])

	require.True(t, result.Success)
	assert.Empty(t, result.Amounts)
	assert.Equal(t, ZeroAmount, result.UserAmount())
	assert.Equal(t, ZeroAmount, result.VillageAmount())
	assert.Empty(t, result.TotalBalance)
	assert.Len(t, acc.calls, 1, "balance is not queried when disabled")
}

func TestExecutor_Failures(t *testing.T) {
	tests := []struct {
		name       string
		acc        *fakeAccount
		connectErr error
		wantHash   string
		wantErr    string
	}{
		{
			name:       "bad key",
			connectErr: near.ErrInvalidKey,
			wantErr:    "connect: invalid private key",
		},
		{
			name:    "network failure",
			acc:     &fakeAccount{claimErr: errors.New("dial tcp: timeout")},
			wantErr: "claim: dial tcp: timeout",
		},
		{
			name:    "missing hash",
			acc:     &fakeAccount{tx: &near.TransactionResult{Actions: 1}},
			wantErr: "claim: invalid transaction response",
		},
		{
			name:    "no actions",
			acc:     &fakeAccount{tx: &near.TransactionResult{Hash: "h"}},
			wantErr: "claim: invalid transaction response",
		},
		{
			name:     "malformed event",
			acc:      &fakeAccount{tx: okTx("Tx3", `EVENT_JSON:{not json`)},
			wantHash: "Tx3",
			wantErr:  "malformed event log",
		},
		{
			name:    "panic",
			acc:     &fakeAccount{panicMsg: "nil map"},
			wantErr: "panic while claiming: nil map",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accs := map[string]*fakeAccount{"alice.tg": tt.acc}
			errs := map[string]error{"alice.tg": tt.connectErr}
			notifier := &recordingNotifier{}
			ex := NewExecutor(connectorFor(accs, errs), notifier, Options{FetchBalance: true})

			result := ex.Claim(context.Background(), creds("alice.tg")[0])

			assert.False(t, result.Success)
			assert.Equal(t, "alice.tg", result.AccountID)
			assert.Equal(t, tt.wantHash, result.TransactionHash)
			assert.Contains(t, result.Error, tt.wantErr)
			assert.Len(t, notifier.results, 1)
		})
	}
}

func TestExecutor_BalanceFailureKeepsClaim(t *testing.T) {
	acc := &fakeAccount{tx: okTx("Tx4"), balanceErr: errors.New("rpc error UNKNOWN_BLOCK")}
	ex := NewExecutor(connectorFor(map[string]*fakeAccount{"alice.tg": acc}, nil), nil, Options{FetchBalance: true})

	result := ex.Claim(context.Background(), creds("alice.tg")[0])

	assert.True(t, result.Success)
	assert.Empty(t, result.TotalBalance)
}

func TestExecutor_RunPassIsolatesFailures(t *testing.T) {
	accs := map[string]*fakeAccount{
		"one.tg":   {tx: okTx("A")},
		"two.tg":   {claimErr: errors.New("signing failed")},
		"three.tg": {tx: okTx("C")},
	}
	notifier := &recordingNotifier{}
	ex := NewExecutor(connectorFor(accs, nil), notifier, Options{})

	summary := ex.RunPass(context.Background(), creds("one.tg", "two.tg", "three.tg"))

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 3)

	var order []string
	for _, r := range summary.Results {
		order = append(order, r.AccountID)
	}
	assert.Equal(t, []string{"one.tg", "two.tg", "three.tg"}, order)
	assert.True(t, summary.Results[0].Success)
	assert.False(t, summary.Results[1].Success)
	assert.True(t, summary.Results[2].Success)

	assert.Len(t, accs["three.tg"].calls, 1, "account after the failure is still claimed")
	assert.Len(t, notifier.results, 3, "one notification per attempt")
}

func TestExecutor_RunPassStopsOnCancel(t *testing.T) {
	accs := map[string]*fakeAccount{"one.tg": {tx: okTx("A")}}
	ex := NewExecutor(connectorFor(accs, nil), nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := ex.RunPass(ctx, creds("one.tg"))
	assert.Empty(t, summary.Results)
}

func TestNotifiers_FanOut(t *testing.T) {
	first, second := &recordingNotifier{}, &recordingNotifier{}
	n := Notifiers{first, nil, second}

	n.Notify(context.Background(), Result{AccountID: "alice.tg", Success: true})

	assert.Len(t, first.results, 1)
	assert.Len(t, second.results, 1)
}
