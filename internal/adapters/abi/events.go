package abi

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Token event signatures. ERC-20 and ERC-721 share Transfer and Approval.
var (
	TransferTopic       = eventTopic("Transfer(address,address,uint256)")
	TransferSingleTopic = eventTopic("TransferSingle(address,address,address,uint256,uint256)")
	TransferBatchTopic  = eventTopic("TransferBatch(address,address,address,uint256[],uint256[])")
	ApprovalTopic       = eventTopic("Approval(address,address,uint256)")
	ApprovalForAllTopic = eventTopic("ApprovalForAll(address,address,bool)")
)

type eventKind int

const (
	eventTransfer eventKind = iota + 1
	eventTransferSingle
	eventTransferBatch
	eventApproval
	eventApprovalForAll
)

var eventRegistry = map[common.Hash]eventKind{
	TransferTopic:       eventTransfer,
	TransferSingleTopic: eventTransferSingle,
	TransferBatchTopic:  eventTransferBatch,
	ApprovalTopic:       eventApproval,
	ApprovalForAllTopic: eventApprovalForAll,
}

func eventTopic(signature string) common.Hash {
	return crypto.Keccak256Hash([]byte(signature))
}
