package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimulateRequest_Validate(t *testing.T) {
	const from = "0x1111111111111111111111111111111111111111"

	tests := []struct {
		name    string
		req     SimulateRequest
		wantErr string
	}{
		{
			name: "minimal",
			req:  SimulateRequest{NetworkID: "sepolia", Tx: TransactionParams{From: from}},
		},
		{
			name: "full",
			req: SimulateRequest{NetworkID: "sepolia", Tx: TransactionParams{
				From:                 from,
				To:                   "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
				Data:                 "0xa9059cbb",
				Value:                "0x00",
				Gas:                  "0x5208",
				MaxFeePerGas:         "0x3b9aca00",
				MaxPriorityFeePerGas: "0x1",
			}},
		},
		{
			name:    "missing network",
			req:     SimulateRequest{Tx: TransactionParams{From: from}},
			wantErr: "networkId is required",
		},
		{
			name:    "missing from",
			req:     SimulateRequest{NetworkID: "sepolia"},
			wantErr: "tx.from is required",
		},
		{
			name:    "unprefixed to",
			req:     SimulateRequest{NetworkID: "sepolia", Tx: TransactionParams{From: from, To: "1111111111111111111111111111111111111111"}},
			wantErr: "tx.to must be a 0x-prefixed 20-byte hex address",
		},
		{
			name:    "odd length data",
			req:     SimulateRequest{NetworkID: "sepolia", Tx: TransactionParams{From: from, Data: "0x123"}},
			wantErr: "tx.data must be 0x-prefixed hex bytes",
		},
		{
			name:    "decimal gas",
			req:     SimulateRequest{NetworkID: "sepolia", Tx: TransactionParams{From: from, Gas: "21000"}},
			wantErr: "tx.gas must be a 0x-prefixed hex quantity",
		},
		{
			name:    "empty quantity digits",
			req:     SimulateRequest{NetworkID: "sepolia", Tx: TransactionParams{From: from, GasPrice: "0x"}},
			wantErr: "tx.gasPrice must be a 0x-prefixed hex quantity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
