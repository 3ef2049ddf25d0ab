package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Validate checks the request shape before any fork is touched
func (r SimulateRequest) Validate() error {
	if strings.TrimSpace(r.NetworkID) == "" {
		return fmt.Errorf("networkId is required")
	}

	tx := r.Tx
	if err := validateAddress("tx.from", tx.From, true); err != nil {
		return err
	}
	if err := validateAddress("tx.to", tx.To, false); err != nil {
		return err
	}
	if tx.Data != "" {
		if _, err := hexutil.Decode(tx.Data); err != nil {
			return fmt.Errorf("tx.data must be 0x-prefixed hex bytes: %v", err)
		}
	}

	quantities := []struct {
		field string
		value string
	}{
		{"tx.value", tx.Value},
		{"tx.gas", tx.Gas},
		{"tx.gasPrice", tx.GasPrice},
		{"tx.maxFeePerGas", tx.MaxFeePerGas},
		{"tx.maxPriorityFeePerGas", tx.MaxPriorityFeePerGas},
	}
	for _, q := range quantities {
		if q.value != "" && !IsHexQuantity(q.value) {
			return fmt.Errorf("%s must be a 0x-prefixed hex quantity", q.field)
		}
	}

	return nil
}

func validateAddress(field, value string, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
	if !strings.HasPrefix(value, "0x") || !common.IsHexAddress(value) {
		return fmt.Errorf("%s must be a 0x-prefixed 20-byte hex address", field)
	}
	return nil
}

// IsHexQuantity accepts 0x followed by one or more hex digits. Leading
// zeros are allowed, unlike hexutil.DecodeBig.
func IsHexQuantity(s string) bool {
	if len(s) < 3 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, c := range s[2:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
