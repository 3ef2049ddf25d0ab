package abi

import (
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/trebuchet-org/deltasim/internal/domain"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

type calldataMethod struct {
	name     string
	standard string
	params   []string
	args     ethabi.Arguments
}

var calldataMethods = buildCalldataMethods(
	calldataSpec{"transfer", "ERC20", "to:address", "amount:uint256"},
	calldataSpec{"approve", "ERC20", "spender:address", "amount:uint256"},
	calldataSpec{"transferFrom", "ERC20/ERC721", "from:address", "to:address", "value:uint256"},
	calldataSpec{"safeTransferFrom", "ERC721", "from:address", "to:address", "tokenId:uint256"},
	calldataSpec{"safeTransferFrom", "ERC721", "from:address", "to:address", "tokenId:uint256", "data:bytes"},
	calldataSpec{"safeTransferFrom", "ERC1155", "from:address", "to:address", "id:uint256", "amount:uint256", "data:bytes"},
	calldataSpec{"safeBatchTransferFrom", "ERC1155", "from:address", "to:address", "ids:uint256[]", "amounts:uint256[]", "data:bytes"},
	calldataSpec{"setApprovalForAll", "ERC721/ERC1155", "operator:address", "approved:bool"},
)

// calldataSpec is a method name, its token standard and name:type params
type calldataSpec []string

func buildCalldataMethods(specs ...calldataSpec) map[string]calldataMethod {
	methods := make(map[string]calldataMethod, len(specs))
	for _, spec := range specs {
		name, standard, params := spec[0], spec[1], spec[2:]

		args := make(ethabi.Arguments, 0, len(params))
		types := make([]string, 0, len(params))
		names := make([]string, 0, len(params))
		for _, param := range params {
			argName, argType, _ := strings.Cut(param, ":")
			typ, err := ethabi.NewType(argType, "", nil)
			if err != nil {
				panic(fmt.Sprintf("invalid abi type %s: %v", argType, err))
			}
			args = append(args, ethabi.Argument{Name: argName, Type: typ})
			types = append(types, argType)
			names = append(names, argName)
		}

		signature := fmt.Sprintf("%s(%s)", name, strings.Join(types, ","))
		selector := hexutil.Encode(crypto.Keccak256([]byte(signature))[:4])
		methods[selector] = calldataMethod{name: name, standard: standard, params: names, args: args}
	}
	return methods
}

// CalldataDecoder decodes top-level token method calls
type CalldataDecoder struct {
	log *slog.Logger
}

// NewCalldataDecoder creates a new calldata decoder
func NewCalldataDecoder(log *slog.Logger) *CalldataDecoder {
	return &CalldataDecoder{
		log: log.With("component", "CalldataDecoder"),
	}
}

// DecodeCalldata returns the decoded method call, or nil when the selector
// is unknown or the arguments do not decode
func (d *CalldataDecoder) DecodeCalldata(data string) *domain.DecodedInput {
	input, err := decodeData(data)
	if err != nil || len(input) < 4 {
		return nil
	}

	method, ok := calldataMethods[hexutil.Encode(input[:4])]
	if !ok {
		return nil
	}

	values, err := method.args.Unpack(input[4:])
	if err != nil {
		d.log.Debug("Failed to decode calldata arguments", "method", method.name, "error", err)
		return nil
	}

	args := make(map[string]string, len(values))
	for i, v := range values {
		args[method.params[i]] = formatArgument(v)
	}

	return &domain.DecodedInput{
		Method:   method.name,
		Standard: method.standard,
		Args:     args,
	}
}

func formatArgument(v interface{}) string {
	switch val := v.(type) {
	case common.Address:
		return canonicalAddress(val)
	case *big.Int:
		return val.String()
	case []*big.Int:
		return strings.Join(lo.Map(val, func(n *big.Int, _ int) string { return n.String() }), ",")
	case bool:
		return strconv.FormatBool(val)
	case []byte:
		return hexutil.Encode(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

var _ usecase.CalldataDecoder = (*CalldataDecoder)(nil)
