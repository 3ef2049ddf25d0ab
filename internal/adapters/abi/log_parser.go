package abi

import (
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/deltasim/internal/domain"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

const wordSize = 32

var (
	maxUint256 = new(uint256.Int).SetAllOne()

	// TransferBatch data: (uint256[] ids, uint256[] values)
	batchArguments = mustArguments("uint256[]", "uint256[]")
)

func mustArguments(types ...string) ethabi.Arguments {
	args := make(ethabi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := ethabi.NewType(t, "", nil)
		if err != nil {
			panic(fmt.Sprintf("invalid abi type %s: %v", t, err))
		}
		args = append(args, ethabi.Argument{Type: typ})
	}
	return args
}

// LogParser decodes token transfer and approval events from raw trace logs
type LogParser struct {
	log *slog.Logger
}

// NewLogParser creates a new log parser
func NewLogParser(log *slog.Logger) *LogParser {
	return &LogParser{
		log: log.With("component", "LogParser"),
	}
}

// rawLog is a trace log with its hex fields decoded
type rawLog struct {
	address string
	topics  []common.Hash
	data    []byte
}

// Parse decodes every known token event in logs, in order.
// Logs with unknown signatures are ignored; malformed known logs are
// logged, recorded in Skipped and do not affect the rest of the batch.
func (p *LogParser) Parse(logs []domain.TraceLog) *domain.ParsedLogs {
	parsed := &domain.ParsedLogs{
		Transfers: domain.TokenTransfers{
			ERC20:   []domain.ERC20Transfer{},
			ERC721:  []domain.ERC721Transfer{},
			ERC1155: []domain.ERC1155Transfer{},
		},
		Approvals: domain.NewApprovalChanges(),
	}

	for i, entry := range logs {
		if len(entry.Topics) == 0 {
			continue
		}
		kind, ok := eventRegistry[common.HexToHash(entry.Topics[0])]
		if !ok {
			continue
		}

		err := p.decode(kind, entry, parsed)
		if err != nil {
			decodeErr := domain.DecodeError{Index: i, Address: strings.ToLower(entry.Address), Reason: err.Error()}
			parsed.Skipped = append(parsed.Skipped, decodeErr)
			p.log.Warn("Skipping malformed log", "index", i, "address", entry.Address, "error", err)
		}
	}

	return parsed
}

func (p *LogParser) decode(kind eventKind, entry domain.TraceLog, out *domain.ParsedLogs) error {
	l, err := decodeRawLog(entry)
	if err != nil {
		return err
	}

	switch kind {
	case eventTransfer:
		return decodeTransfer(l, out)
	case eventTransferSingle:
		return decodeTransferSingle(l, out)
	case eventTransferBatch:
		return decodeTransferBatch(l, out)
	case eventApproval:
		return decodeApproval(l, out)
	case eventApprovalForAll:
		return decodeApprovalForAll(l, out)
	}
	return nil
}

func decodeRawLog(entry domain.TraceLog) (rawLog, error) {
	if !common.IsHexAddress(entry.Address) {
		return rawLog{}, fmt.Errorf("invalid emitter address %q", entry.Address)
	}

	topics := make([]common.Hash, 0, len(entry.Topics))
	for i, topic := range entry.Topics {
		b, err := hexutil.Decode(topic)
		if err != nil {
			return rawLog{}, fmt.Errorf("invalid topic %d: %w", i, err)
		}
		if len(b) != wordSize {
			return rawLog{}, fmt.Errorf("topic %d is %d bytes, expected %d", i, len(b), wordSize)
		}
		topics = append(topics, common.BytesToHash(b))
	}

	data, err := decodeData(entry.Data)
	if err != nil {
		return rawLog{}, fmt.Errorf("invalid data: %w", err)
	}

	return rawLog{
		address: canonicalAddress(common.HexToAddress(entry.Address)),
		topics:  topics,
		data:    data,
	}, nil
}

// Transfer: 3 topics is ERC-20 (amount in data), 4 topics is ERC-721 (id in topic 3)
func decodeTransfer(l rawLog, out *domain.ParsedLogs) error {
	switch {
	case len(l.topics) == 4:
		out.Transfers.ERC721 = append(out.Transfers.ERC721, domain.ERC721Transfer{
			Token:   l.address,
			From:    topicAddress(l.topics[1]),
			To:      topicAddress(l.topics[2]),
			TokenID: topicUint(l.topics[3]).Dec(),
		})
	case len(l.topics) >= 3:
		amount, err := word(l.data, 0)
		if err != nil {
			return fmt.Errorf("transfer amount: %w", err)
		}
		out.Transfers.ERC20 = append(out.Transfers.ERC20, domain.ERC20Transfer{
			Token:  l.address,
			From:   topicAddress(l.topics[1]),
			To:     topicAddress(l.topics[2]),
			Amount: amount.Dec(),
		})
	default:
		return fmt.Errorf("transfer log has %d topics", len(l.topics))
	}
	return nil
}

// TransferSingle(operator, from, to, id, value)
func decodeTransferSingle(l rawLog, out *domain.ParsedLogs) error {
	if len(l.topics) != 4 {
		return fmt.Errorf("transfer single log has %d topics", len(l.topics))
	}
	id, err := word(l.data, 0)
	if err != nil {
		return fmt.Errorf("transfer single id: %w", err)
	}
	amount, err := word(l.data, 1)
	if err != nil {
		return fmt.Errorf("transfer single value: %w", err)
	}

	out.Transfers.ERC1155 = append(out.Transfers.ERC1155, domain.ERC1155Transfer{
		Token:    l.address,
		Operator: topicAddress(l.topics[1]),
		From:     topicAddress(l.topics[2]),
		To:       topicAddress(l.topics[3]),
		ID:       id.Dec(),
		Amount:   amount.Dec(),
	})
	return nil
}

// TransferBatch(operator, from, to, ids[], values[]). Arrays of different
// lengths are paired up to the shorter one.
func decodeTransferBatch(l rawLog, out *domain.ParsedLogs) error {
	if len(l.topics) != 4 {
		return fmt.Errorf("transfer batch log has %d topics", len(l.topics))
	}

	values, err := batchArguments.Unpack(l.data)
	if err != nil {
		return fmt.Errorf("transfer batch arrays: %w", err)
	}
	ids, ok := values[0].([]*big.Int)
	if !ok {
		return fmt.Errorf("unexpected ids type %T", values[0])
	}
	amounts, ok := values[1].([]*big.Int)
	if !ok {
		return fmt.Errorf("unexpected values type %T", values[1])
	}

	operator := topicAddress(l.topics[1])
	from := topicAddress(l.topics[2])
	to := topicAddress(l.topics[3])
	for i := 0; i < min(len(ids), len(amounts)); i++ {
		out.Transfers.ERC1155 = append(out.Transfers.ERC1155, domain.ERC1155Transfer{
			Token:    l.address,
			Operator: operator,
			From:     from,
			To:       to,
			ID:       ids[i].String(),
			Amount:   amounts[i].String(),
		})
	}
	return nil
}

// Approval: 3 topics is ERC-20 (amount in data), 4 topics is ERC-721 (id in topic 3)
func decodeApproval(l rawLog, out *domain.ParsedLogs) error {
	switch {
	case len(l.topics) == 4:
		out.Approvals.ERC721 = append(out.Approvals.ERC721, domain.ERC721Approval{
			Token:   l.address,
			Owner:   topicAddress(l.topics[1]),
			Spender: topicAddress(l.topics[2]),
			TokenID: topicUint(l.topics[3]).Dec(),
		})
	case len(l.topics) >= 3:
		amount, err := word(l.data, 0)
		if err != nil {
			return fmt.Errorf("approval amount: %w", err)
		}
		out.Approvals.ERC20 = append(out.Approvals.ERC20, domain.ERC20Approval{
			Token:       l.address,
			Owner:       topicAddress(l.topics[1]),
			Spender:     topicAddress(l.topics[2]),
			Amount:      amount.Dec(),
			IsUnlimited: IsUnlimited(amount),
		})
	default:
		return fmt.Errorf("approval log has %d topics", len(l.topics))
	}
	return nil
}

// ApprovalForAll(owner, operator, approved)
func decodeApprovalForAll(l rawLog, out *domain.ParsedLogs) error {
	if len(l.topics) != 3 {
		return fmt.Errorf("approval for all log has %d topics", len(l.topics))
	}
	approved, err := word(l.data, 0)
	if err != nil {
		return fmt.Errorf("approval for all flag: %w", err)
	}

	out.Approvals.OperatorApprovals = append(out.Approvals.OperatorApprovals, domain.OperatorApproval{
		Token:    l.address,
		Owner:    topicAddress(l.topics[1]),
		Operator: topicAddress(l.topics[2]),
		Approved: !approved.IsZero(),
	})
	return nil
}

// IsUnlimited reports whether amount is the maximum uint256 value
func IsUnlimited(amount *uint256.Int) bool {
	return amount.Eq(maxUint256)
}

// word returns the n-th 32-byte big-endian word of data
func word(data []byte, n int) (*uint256.Int, error) {
	start := n * wordSize
	if len(data) < start+wordSize {
		return nil, fmt.Errorf("data is %d bytes, need word %d", len(data), n)
	}
	return new(uint256.Int).SetBytes(data[start : start+wordSize]), nil
}

func topicAddress(h common.Hash) string {
	return canonicalAddress(common.BytesToAddress(h[12:]))
}

func topicUint(h common.Hash) *uint256.Int {
	return new(uint256.Int).SetBytes(h[:])
}

func canonicalAddress(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func decodeData(s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return nil, nil
	}
	return hexutil.Decode(s)
}

var _ usecase.LogDecoder = (*LogParser)(nil)
