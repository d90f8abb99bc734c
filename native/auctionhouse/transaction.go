package auctionhouse

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// SignatureEntry is one signer's signature over the transaction message.
type SignatureEntry struct {
	PublicKey solana.PublicKey
	Signature solana.Signature
}

// Transaction is an ordered batch of instructions applied atomically. The
// nonce is part of the signed message; the ledger admits a given message at
// most once, so repeating the same instructions needs a fresh nonce.
type Transaction struct {
	Nonce        string
	Instructions []Instruction
	Signatures   []SignatureEntry
}

// NewTransaction wraps instructions in an unsigned transaction with a random
// nonce.
func NewTransaction(instructions ...Instruction) *Transaction {
	return &Transaction{Nonce: uuid.NewString(), Instructions: instructions}
}

type message struct {
	Nonce        string         `json:"nonce"`
	Instructions []messageEntry `json:"instructions"`
}

type messageEntry struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// Message returns the canonical bytes every signer signs.
func (t *Transaction) Message() ([]byte, error) {
	entries := make([]messageEntry, 0, len(t.Instructions))
	for i, ix := range t.Instructions {
		if ix == nil {
			return nil, fmt.Errorf("%w: instruction %d is nil", ErrUnknownInstruction, i)
		}
		data, err := json.Marshal(ix)
		if err != nil {
			return nil, fmt.Errorf("auctionhouse: encode %s: %w", ix.Name(), err)
		}
		entries = append(entries, messageEntry{Name: ix.Name(), Data: data})
	}
	return json.Marshal(message{Nonce: t.Nonce, Instructions: entries})
}

// Sign appends a signature from every key. Signing again with the same key
// replaces its earlier signature.
func (t *Transaction) Sign(keys ...solana.PrivateKey) error {
	msg, err := t.Message()
	if err != nil {
		return err
	}
	for _, key := range keys {
		sig, err := key.Sign(msg)
		if err != nil {
			return fmt.Errorf("auctionhouse: sign: %w", err)
		}
		pub := key.PublicKey()
		replaced := false
		for i := range t.Signatures {
			if t.Signatures[i].PublicKey.Equals(pub) {
				t.Signatures[i].Signature = sig
				replaced = true
			}
		}
		if !replaced {
			t.Signatures = append(t.Signatures, SignatureEntry{PublicKey: pub, Signature: sig})
		}
	}
	return nil
}

// VerifySignatures checks every signature against the message and returns
// the signer set along with the message they signed.
func (t *Transaction) VerifySignatures() ([]solana.PublicKey, []byte, error) {
	msg, err := t.Message()
	if err != nil {
		return nil, nil, err
	}
	signers := make([]solana.PublicKey, 0, len(t.Signatures))
	for _, entry := range t.Signatures {
		if !entry.Signature.Verify(entry.PublicKey, msg) {
			return nil, nil, fmt.Errorf("%w: %s", ErrInvalidSignature, entry.PublicKey)
		}
		signers = append(signers, entry.PublicKey)
	}
	return signers, msg, nil
}

// Accounts returns every account the transaction declares, in first-seen
// order.
func (t *Transaction) Accounts() []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{})
	var out []solana.PublicKey
	for _, ix := range t.Instructions {
		for _, key := range ix.Accounts() {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	return out
}
