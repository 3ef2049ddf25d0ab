package abi

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	// DefaultRevertReason is used when a revert carries no data
	DefaultRevertReason = "Transaction reverted"

	errorSelector = "0x08c379a0" // Error(string)
	panicSelector = "0x4e487b71" // Panic(uint256)

	// selector + offset word + length word, in hex chars with the 0x prefix
	errorHeadLen = 2 + 2*(4+wordSize+wordSize)
)

var panicReasons = map[uint64]string{
	0x00: "Generic panic",
	0x01: "Assert failed",
	0x11: "Arithmetic overflow/underflow",
	0x12: "Division by zero",
	0x21: "Invalid enum value",
	0x22: "Invalid storage access",
	0x31: "Pop on empty array",
	0x32: "Out of bounds array access",
	0x41: "Out of memory",
	0x51: "Call to uninitialized function",
}

// DecodeRevertReason turns revert data into a human readable reason.
// Error(string) and Panic(uint256) payloads are decoded, anything else is
// returned unchanged.
func DecodeRevertReason(output string) string {
	if output == "" || output == "0x" {
		return DefaultRevertReason
	}
	if len(output) < len(errorSelector) {
		return output
	}

	switch strings.ToLower(output[:len(errorSelector)]) {
	case errorSelector:
		if len(output) < errorHeadLen {
			return output
		}
		b, err := hex.DecodeString(output[errorHeadLen:])
		if err != nil {
			return output
		}
		return strings.ToValidUTF8(strings.ReplaceAll(string(b), "\x00", ""), "�")

	case panicSelector:
		code, ok := new(big.Int).SetString(output[len(panicSelector):], 16)
		if !ok {
			return output
		}
		if code.IsUint64() {
			if reason, ok := panicReasons[code.Uint64()]; ok {
				return reason
			}
		}
		return fmt.Sprintf("Panic(%s)", code.String())
	}

	return output
}
