package abi

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalldataSelectors(t *testing.T) {
	expected := map[string]string{
		"0xa9059cbb": "transfer",
		"0x095ea7b3": "approve",
		"0x23b872dd": "transferFrom",
		"0x42842e0e": "safeTransferFrom",
		"0xb88d4fde": "safeTransferFrom",
		"0xf242432a": "safeTransferFrom",
		"0x2eb2c2d6": "safeBatchTransferFrom",
		"0xa22cb465": "setApprovalForAll",
	}

	require.Len(t, calldataMethods, len(expected))
	for selector, name := range expected {
		method, ok := calldataMethods[selector]
		require.True(t, ok, "missing selector %s", selector)
		assert.Equal(t, name, method.name)
	}
}

func TestDecodeCalldata_Transfer(t *testing.T) {
	decoder := NewCalldataDecoder(testLogger())
	method := calldataMethods["0xa9059cbb"]

	packed, err := method.args.Pack(common.HexToAddress(receiverAddr), big.NewInt(100))
	require.NoError(t, err)

	decoded := decoder.DecodeCalldata("0xa9059cbb" + hexutil.Encode(packed)[2:])

	require.NotNil(t, decoded)
	assert.Equal(t, "transfer", decoded.Method)
	assert.Equal(t, "ERC20", decoded.Standard)
	assert.Equal(t, map[string]string{
		"to":     strings.ToLower(receiverAddr),
		"amount": "100",
	}, decoded.Args)
}

func TestDecodeCalldata_BatchTransfer(t *testing.T) {
	decoder := NewCalldataDecoder(testLogger())
	method := calldataMethods["0x2eb2c2d6"]

	packed, err := method.args.Pack(
		common.HexToAddress(ownerAddr),
		common.HexToAddress(receiverAddr),
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
		[]*big.Int{big.NewInt(3), big.NewInt(4)},
		[]byte{},
	)
	require.NoError(t, err)

	decoded := decoder.DecodeCalldata("0x2eb2c2d6" + hexutil.Encode(packed)[2:])

	require.NotNil(t, decoded)
	assert.Equal(t, "ERC1155", decoded.Standard)
	assert.Equal(t, "1,2", decoded.Args["ids"])
	assert.Equal(t, "3,4", decoded.Args["amounts"])
	assert.Equal(t, "0x", decoded.Args["data"])
}

func TestDecodeCalldata_Unknown(t *testing.T) {
	decoder := NewCalldataDecoder(testLogger())

	assert.Nil(t, decoder.DecodeCalldata(""))
	assert.Nil(t, decoder.DecodeCalldata("0x"))
	assert.Nil(t, decoder.DecodeCalldata("0xdeadbeef"))
	assert.Nil(t, decoder.DecodeCalldata("0xa9059cbb00"))
	assert.Nil(t, decoder.DecodeCalldata("zz"))
}
