package ton

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrTxNotFound      = errors.New("transaction not found")
	ErrTxFailed        = errors.New("transaction failed on chain")
	ErrAmountMismatch  = errors.New("transaction amount mismatch")
	ErrAddressMismatch = errors.New("transaction destination mismatch")
)

var (
	rawAddressRe      = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
	friendlyAddressRe = regexp.MustCompile(`^[A-Za-z0-9_-]{48}$`)
	prefixedAddressRe = regexp.MustCompile(`^(EQ|UQ)[A-Za-z0-9_-]{46}$`)
)

// ValidateAddress checks whether a string looks like a TON wallet address:
// raw 64-hex, 48-char user-friendly base64, or EQ/UQ prefixed.
func ValidateAddress(address string) bool {
	return rawAddressRe.MatchString(address) ||
		friendlyAddressRe.MatchString(address) ||
		prefixedAddressRe.MatchString(address)
}

// NormalizeAddress converts a user-friendly address to raw workchain:hex
// form. Raw-form input passes through unchanged.
func NormalizeAddress(address string) (string, error) {
	if len(address) >= 66 && (address[0:2] == "0:" || address[0:3] == "-1:") {
		return address, nil
	}

	if len(address) == 48 {
		decoded, err := base64.URLEncoding.DecodeString(address)
		if err != nil {
			return "", fmt.Errorf("invalid address format: %w", err)
		}

		// 1 byte flags + 1 byte workchain + 32 bytes hash + 2 bytes CRC
		if len(decoded) != 36 {
			return "", errors.New("invalid address length")
		}

		workchain := int8(decoded[1])
		hash := decoded[2:34]

		return fmt.Sprintf("%d:%s", workchain, hex.EncodeToString(hash)), nil
	}

	return "", errors.New("unknown address format")
}

// Verifier checks completed payouts against the chain before an admin
// marks a withdrawal COMPLETED. It never participates in the debit; the
// escrow happened when the request was created.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

// VerifyTransaction confirms that txHash landed on-chain, succeeded, and
// carried at least expectedAmountNano to expectedAddress. The amount may
// exceed the expectation (sender covered fees) but never fall short.
func (v *Verifier) VerifyTransaction(ctx context.Context, txHash string, expectedAmountNano int64, expectedAddress string) error {
	tx, err := v.client.GetTransaction(ctx, txHash)
	if err != nil {
		return fmt.Errorf("fetch transaction: %w", err)
	}
	if tx == nil {
		return ErrTxNotFound
	}
	if !tx.Success {
		return ErrTxFailed
	}

	wantAddr := expectedAddress
	if normalized, err := NormalizeAddress(expectedAddress); err == nil {
		wantAddr = normalized
	}

	for _, msg := range tx.OutMsgs {
		dest := msg.Destination
		if normalized, err := NormalizeAddress(dest); err == nil {
			dest = normalized
		}
		if dest != wantAddr {
			continue
		}
		if msg.Value < expectedAmountNano {
			return ErrAmountMismatch
		}
		return nil
	}

	// A simple transfer may carry the value on the inbound message of the
	// recipient's transaction instead.
	if tx.InMsg != nil {
		dest := tx.InMsg.Destination
		if normalized, err := NormalizeAddress(dest); err == nil {
			dest = normalized
		}
		if dest == wantAddr {
			if tx.InMsg.Value < expectedAmountNano {
				return ErrAmountMismatch
			}
			return nil
		}
	}

	return ErrAddressMismatch
}
