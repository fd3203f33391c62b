package claim

// Claim execution
// One claim transaction per account, strictly in order; a failing account never stops the pass

import (
	"context"
	"fmt"
	"time"

	"hot-claimer/internal/clients_api/near"
	"hot-claimer/internal/features/accounts"
	"hot-claimer/internal/infra/log"
	"hot-claimer/internal/infra/metrics"

	"go.uber.org/zap"
)

const (
	// DefaultContractID is the HOT game contract
	DefaultContractID = "game.hot.tg"
	ClaimMethod       = "claim"
	BalanceMethod     = "ft_balance_of"
)

// ChainAccount is a signing identity able to call the contract
type ChainAccount interface {
	FunctionCall(ctx context.Context, contractID, method string, args any, gas uint64) (*near.TransactionResult, error)
	ViewFunction(ctx context.Context, contractID, method string, args any) ([]byte, error)
}

// Connector establishes the signing identity for a credential
type Connector func(cred accounts.Credential) (ChainAccount, error)

// Notifier receives every claim result
type Notifier interface {
	Notify(ctx context.Context, result Result)
}

type Options struct {
	ContractID   string
	Gas          uint64
	FetchBalance bool
}

type Executor struct {
	connect  Connector
	notifier Notifier
	opts     Options
}

func NewExecutor(connect Connector, notifier Notifier, opts Options) *Executor {
	if opts.ContractID == "" {
		opts.ContractID = DefaultContractID
	}
	return &Executor{connect: connect, notifier: notifier, opts: opts}
}

// RunPass claims for every credential in order
func (e *Executor) RunPass(ctx context.Context, creds []accounts.Credential) PassSummary {
	var summary PassSummary
	for i, cred := range creds {
		if ctx.Err() != nil {
			log.LogWarn("Pass interrupted", zap.Int("processed", i), zap.Int("total", len(creds)))
			break
		}

		result := e.Claim(ctx, cred)
		summary.Results = append(summary.Results, result)
		if result.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// Claim runs one claim attempt and always notifies exactly once
func (e *Executor) Claim(ctx context.Context, cred accounts.Credential) Result {
	start := time.Now()
	log.LogNotice(fmt.Sprintf("[%s] Claiming %s", start.Format("15:04:05"), cred.AccountID),
		zap.String("account", cred.AccountID))

	result, err := e.claim(ctx, cred)
	if err != nil {
		result = Result{AccountID: cred.AccountID, TransactionHash: result.TransactionHash, Error: err.Error()}
		metrics.ClaimsTotal.WithLabelValues("failed").Inc()
		log.LogError(fmt.Sprintf("Error processing %s", cred.AccountID),
			zap.String("account", cred.AccountID),
			zap.Error(err))
	} else {
		metrics.ClaimsTotal.WithLabelValues("success").Inc()
		logResult(result, time.Since(start))
	}

	if e.notifier != nil {
		e.notifier.Notify(ctx, result)
	}
	return result
}

func (e *Executor) claim(ctx context.Context, cred accounts.Credential) (result Result, err error) {
	result.AccountID = cred.AccountID

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while claiming: %v", r)
		}
	}()

	account, err := e.connect(cred)
	if err != nil {
		return result, fmt.Errorf("connect: %w", err)
	}

	tx, err := account.FunctionCall(ctx, e.opts.ContractID, ClaimMethod, map[string]any{}, e.opts.Gas)
	if err != nil {
		return result, fmt.Errorf("claim: %w", err)
	}
	if tx == nil || tx.Hash == "" || tx.Actions == 0 {
		return result, fmt.Errorf("claim: %w", near.ErrInvalidResponse)
	}
	result.TransactionHash = tx.Hash

	amounts, err := ParseClaimLogs(tx.Logs)
	if err != nil {
		return result, err
	}
	result.Amounts = amounts

	if e.opts.FetchBalance {
		balance, err := e.balance(ctx, account, cred.AccountID)
		if err != nil {
			log.LogWarn(fmt.Sprintf("Balance lookup failed for %s", cred.AccountID),
				zap.String("account", cred.AccountID),
				zap.Error(err))
		} else {
			result.TotalBalance = balance
		}
	}

	result.Success = true
	return result, nil
}

func (e *Executor) balance(ctx context.Context, account ChainAccount, accountID string) (string, error) {
	raw, err := account.ViewFunction(ctx, e.opts.ContractID, BalanceMethod, map[string]string{"account_id": accountID})
	if err != nil {
		return "", err
	}
	return ParseBalance(raw)
}

func logResult(r Result, elapsed time.Duration) {
	log.LogSuccess(fmt.Sprintf("Claimed %s: %s HOT (user), %s HOT (village)", r.AccountID, r.UserAmount(), r.VillageAmount()),
		zap.String("account", r.AccountID),
		zap.String("tx", r.TransactionHash),
		zap.Int("entries", len(r.Amounts)),
		zap.Int64("duration_ms", elapsed.Milliseconds()))
	if r.TotalBalance != "" {
		log.LogNotice(fmt.Sprintf("Total balance %s: %s HOT", r.AccountID, r.TotalBalance))
	}
}
