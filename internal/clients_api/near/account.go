package near

import (
	"context"
	"fmt"
)

// Account is a signing identity bound to a client
type Account struct {
	client *Client
	id     string
	key    *KeyPair
}

// Account builds a signing identity for accountID from its private key string
func (c *Client) Account(accountID, privateKey string) (*Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("empty account id")
	}
	key, err := ParseKeyPair(privateKey)
	if err != nil {
		return nil, err
	}
	return &Account{client: c, id: accountID, key: key}, nil
}

func (a *Account) ID() string { return a.id }

func (a *Account) PublicKey() string { return a.key.PublicKey() }

// FunctionCall signs and submits a single function call, waiting for the final outcome
func (a *Account) FunctionCall(ctx context.Context, contractID, method string, args any, gas uint64) (*TransactionResult, error) {
	accessKey, err := a.client.ViewAccessKey(ctx, a.id, a.key.PublicKey())
	if err != nil {
		return nil, err
	}

	signed, err := SignFunctionCall(a.key, FunctionCallTx{
		SignerID:   a.id,
		ReceiverID: contractID,
		Nonce:      accessKey.Nonce + 1,
		BlockHash:  accessKey.BlockHash,
		MethodName: method,
		Args:       args,
		Gas:        gas,
	})
	if err != nil {
		return nil, err
	}

	return a.client.BroadcastTxCommit(ctx, signed)
}

// ViewFunction calls a read-only contract method
func (a *Account) ViewFunction(ctx context.Context, contractID, method string, args any) ([]byte, error) {
	return a.client.CallFunction(ctx, contractID, method, args)
}
