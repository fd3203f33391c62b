package near

// Borsh layout of a NEAR transaction with function call actions
// Field order matters: it is the wire format

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/near/borsh-go"
)

const keyTypeED25519 uint8 = 0

// DefaultGas is the function call gas near-api-js attaches by default (30 Tgas)
const DefaultGas uint64 = 30_000_000_000_000

type borshPublicKey struct {
	KeyType uint8
	Data    [32]byte
}

type borshSignature struct {
	KeyType uint8
	Data    [64]byte
}

type borshCreateAccount struct{}

type borshDeployContract struct {
	Code []byte
}

type borshFunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    [16]byte // u128 little endian, yoctoNEAR
}

// borshAction variants follow the protocol enum order
type borshAction struct {
	Enum           borsh.Enum `borsh_enum:"true"`
	CreateAccount  borshCreateAccount
	DeployContract borshDeployContract
	FunctionCall   borshFunctionCall
}

const actionFunctionCall borsh.Enum = 2

type borshTransaction struct {
	SignerID   string
	PublicKey  borshPublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []borshAction
}

type borshSignedTransaction struct {
	Transaction borshTransaction
	Signature   borshSignature
}

// FunctionCallTx describes a single function call transaction
type FunctionCallTx struct {
	SignerID   string
	ReceiverID string
	Nonce      uint64
	BlockHash  string // base58
	MethodName string
	Args       any // JSON encoded; nil becomes {}
	Gas        uint64
}

// SignedTx is a serialized signed transaction ready for broadcast
type SignedTx struct {
	Bytes []byte
	Hash  string // base58 sha256 of the unsigned transaction
}

// SignFunctionCall serializes tx with borsh, hashes it with sha256 and signs the hash
func SignFunctionCall(key *KeyPair, tx FunctionCallTx) (*SignedTx, error) {
	args, err := encodeArgs(tx.Args)
	if err != nil {
		return nil, err
	}

	blockHash := base58.Decode(tx.BlockHash)
	if len(blockHash) != 32 {
		return nil, fmt.Errorf("invalid block hash %q", tx.BlockHash)
	}

	gas := tx.Gas
	if gas == 0 {
		gas = DefaultGas
	}

	unsigned := borshTransaction{
		SignerID:   tx.SignerID,
		PublicKey:  borshPublicKey{KeyType: keyTypeED25519, Data: key.publicKeyBytes()},
		Nonce:      tx.Nonce,
		ReceiverID: tx.ReceiverID,
		Actions: []borshAction{{
			Enum: actionFunctionCall,
			FunctionCall: borshFunctionCall{
				MethodName: tx.MethodName,
				Args:       args,
				Gas:        gas,
			},
		}},
	}
	copy(unsigned.BlockHash[:], blockHash)

	encoded, err := borsh.Serialize(unsigned)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	digest := sha256.Sum256(encoded)

	signed := borshSignedTransaction{
		Transaction: unsigned,
		Signature:   borshSignature{KeyType: keyTypeED25519},
	}
	copy(signed.Signature.Data[:], key.Sign(digest[:]))

	out, err := borsh.Serialize(signed)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize signed transaction: %w", err)
	}

	return &SignedTx{Bytes: out, Hash: base58.Encode(digest[:])}, nil
}

func encodeArgs(args any) ([]byte, error) {
	switch v := args.(type) {
	case nil:
		return []byte("{}"), nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode call args: %w", err)
		}
		return b, nil
	}
}
