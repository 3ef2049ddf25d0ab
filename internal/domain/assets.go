package domain

// Asset records. Addresses are lowercase hex, quantities are decimal strings.

type NativeTransfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type ERC20Transfer struct {
	Token  string `json:"token"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type ERC721Transfer struct {
	Token   string `json:"token"`
	From    string `json:"from"`
	To      string `json:"to"`
	TokenID string `json:"tokenId"`
}

type ERC1155Transfer struct {
	Token    string `json:"token"`
	Operator string `json:"operator"`
	From     string `json:"from"`
	To       string `json:"to"`
	ID       string `json:"id"`
	Amount   string `json:"amount"`
}

type ERC20Approval struct {
	Token       string `json:"token"`
	Owner       string `json:"owner"`
	Spender     string `json:"spender"`
	Amount      string `json:"amount"`
	IsUnlimited bool   `json:"isUnlimited"`
}

type ERC721Approval struct {
	Token   string `json:"token"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	TokenID string `json:"tokenId"`
}

type OperatorApproval struct {
	Token    string `json:"token"`
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// TokenTransfers are the token transfers decoded from logs
type TokenTransfers struct {
	ERC20   []ERC20Transfer
	ERC721  []ERC721Transfer
	ERC1155 []ERC1155Transfer
}

// AssetChanges holds every transfer of one simulated transaction
type AssetChanges struct {
	Native  []NativeTransfer  `json:"native"`
	ERC20   []ERC20Transfer   `json:"erc20"`
	ERC721  []ERC721Transfer  `json:"erc721"`
	ERC1155 []ERC1155Transfer `json:"erc1155"`
}

// NewAssetChanges returns AssetChanges with empty, non-nil lists
func NewAssetChanges() AssetChanges {
	return AssetChanges{
		Native:  []NativeTransfer{},
		ERC20:   []ERC20Transfer{},
		ERC721:  []ERC721Transfer{},
		ERC1155: []ERC1155Transfer{},
	}
}

// ApprovalChanges holds every approval of one simulated transaction
type ApprovalChanges struct {
	ERC20             []ERC20Approval    `json:"erc20"`
	ERC721            []ERC721Approval   `json:"erc721"`
	OperatorApprovals []OperatorApproval `json:"operatorApprovals"`
}

// NewApprovalChanges returns ApprovalChanges with empty, non-nil lists
func NewApprovalChanges() ApprovalChanges {
	return ApprovalChanges{
		ERC20:             []ERC20Approval{},
		ERC721:            []ERC721Approval{},
		OperatorApprovals: []OperatorApproval{},
	}
}

// AddressDeltas maps an asset key to a signed decimal string
type AddressDeltas map[string]string

// DeltasByAddress maps an address to its net asset deltas
type DeltasByAddress map[string]AddressDeltas

// AggregatedApproval is the latest ERC-20 approval for one owner and token
type AggregatedApproval struct {
	Spender     string `json:"spender"`
	Amount      string `json:"amount"`
	IsUnlimited bool   `json:"isUnlimited"`
}

// ApprovalsByAddress maps owner to token to its latest approval
type ApprovalsByAddress map[string]map[string]AggregatedApproval

// NativeAssetKey is the asset key used for the chain's native currency
const NativeAssetKey = "native"

// ParsedLogs is the typed view of one transaction's logs
type ParsedLogs struct {
	Transfers TokenTransfers
	Approvals ApprovalChanges
	// Skipped lists logs with a known signature that failed to decode
	Skipped []DecodeError
}
