package near

// Typed views of NEAR RPC responses
// Raw responses are decoded and validated here so callers never touch unchecked fields

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidResponse - response is missing the transaction hash or actions
	ErrInvalidResponse = errors.New("invalid transaction response")
	// ErrTransactionFailed - the transaction or one of its receipts reported Failure
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrInvalidKey - private key cannot be decoded
	ErrInvalidKey = errors.New("invalid private key")
)

// RPCError is the error object of a NEAR JSON-RPC response
type RPCError struct {
	Name    string          `json:"name"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Cause   struct {
		Name string          `json:"name"`
		Info json.RawMessage `json:"info"`
	} `json:"cause"`
}

func (e *RPCError) Error() string {
	var b strings.Builder
	b.WriteString("rpc error")
	if e.Cause.Name != "" {
		b.WriteString(" " + e.Cause.Name)
	} else if e.Name != "" {
		b.WriteString(" " + e.Name)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if len(e.Data) > 0 && string(e.Data) != "null" {
		b.WriteString(" (" + strings.Trim(string(e.Data), `"`) + ")")
	}
	return b.String()
}

// Transient reports whether repeating the call may succeed
func (e *RPCError) Transient() bool {
	switch e.Cause.Name {
	case "NO_SYNCED_BLOCKS", "UNAVAILABLE_SHARD", "INTERNAL_ERROR", "TIMEOUT_ERROR":
		return true
	}
	return false
}

// AccessKeyView is the result of a view_access_key query
type AccessKeyView struct {
	Nonce       uint64          `json:"nonce"`
	BlockHash   string          `json:"block_hash"`
	BlockHeight uint64          `json:"block_height"`
	Permission  json.RawMessage `json:"permission"`
}

// CallResult is the result of a call_function query
type CallResult struct {
	Result      []int    `json:"result"`
	Logs        []string `json:"logs"`
	BlockHeight uint64   `json:"block_height"`
	BlockHash   string   `json:"block_hash"`
	Error       string   `json:"error"`
}

// Bytes converts the node's byte array into raw bytes
func (r *CallResult) Bytes() ([]byte, error) {
	out := make([]byte, len(r.Result))
	for i, v := range r.Result {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: call result byte %d out of range", ErrInvalidResponse, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// TransactionResult is the validated outcome of broadcast_tx_commit
type TransactionResult struct {
	Hash       string
	SignerID   string
	ReceiverID string
	Actions    int
	// Logs of all receipt outcomes, flattened in receipt order
	Logs []string
}

type rawStatus map[string]json.RawMessage

type rawTransactionResponse struct {
	Status      json.RawMessage `json:"status"`
	Transaction *struct {
		Hash       string            `json:"hash"`
		SignerID   string            `json:"signer_id"`
		ReceiverID string            `json:"receiver_id"`
		Actions    []json.RawMessage `json:"actions"`
	} `json:"transaction"`
	ReceiptsOutcome []struct {
		ID      string `json:"id"`
		Outcome struct {
			Logs   []string        `json:"logs"`
			Status json.RawMessage `json:"status"`
		} `json:"outcome"`
	} `json:"receipts_outcome"`
}

// DecodeTransactionResult validates and converts a broadcast_tx_commit result
func DecodeTransactionResult(data []byte) (*TransactionResult, error) {
	var raw rawTransactionResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if raw.Transaction == nil || raw.Transaction.Hash == "" {
		return nil, fmt.Errorf("%w: missing transaction hash", ErrInvalidResponse)
	}
	if len(raw.Transaction.Actions) == 0 {
		return nil, fmt.Errorf("%w: transaction %s has no actions", ErrInvalidResponse, raw.Transaction.Hash)
	}

	if failure := failureOf(raw.Status); failure != "" {
		return nil, fmt.Errorf("%w: %s: %s", ErrTransactionFailed, raw.Transaction.Hash, failure)
	}

	result := &TransactionResult{
		Hash:       raw.Transaction.Hash,
		SignerID:   raw.Transaction.SignerID,
		ReceiverID: raw.Transaction.ReceiverID,
		Actions:    len(raw.Transaction.Actions),
	}
	for _, receipt := range raw.ReceiptsOutcome {
		result.Logs = append(result.Logs, receipt.Outcome.Logs...)
	}
	return result, nil
}

// failureOf returns the Failure payload of an execution status, or ""
func failureOf(status json.RawMessage) string {
	if len(status) == 0 {
		return ""
	}
	var s rawStatus
	if err := json.Unmarshal(status, &s); err != nil {
		// string statuses like "NotStarted" carry no failure
		return ""
	}
	if failure, ok := s["Failure"]; ok {
		return string(failure)
	}
	return ""
}
