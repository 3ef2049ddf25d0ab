package domain

// TransactionParams are the caller-supplied transaction fields.
// All numeric fields are 0x-prefixed hex quantities.
type TransactionParams struct {
	From                 string `json:"from"`
	To                   string `json:"to,omitempty"`
	Data                 string `json:"data,omitempty"`
	Value                string `json:"value,omitempty"`
	Gas                  string `json:"gas,omitempty"`
	GasPrice             string `json:"gasPrice,omitempty"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`
}

// SimulateRequest is one simulation request for a network
type SimulateRequest struct {
	NetworkID string            `json:"networkId"`
	Tx        TransactionParams `json:"tx"`
}

// DecodedInput describes the top-level calldata when its selector is known
type DecodedInput struct {
	Method   string            `json:"method"`
	Standard string            `json:"standard"`
	Args     map[string]string `json:"args"`
}

// SimulateResponse is the normalized result of one simulation
type SimulateResponse struct {
	Success            bool               `json:"success"`
	RevertReason       *string            `json:"revertReason"`
	GasUsed            *string            `json:"gasUsed"`
	InvolvedAddresses  []string           `json:"involvedAddresses"`
	AssetChanges       AssetChanges       `json:"assetChanges"`
	DeltasByAddress    DeltasByAddress    `json:"deltasByAddress"`
	Approvals          ApprovalChanges    `json:"approvals"`
	ApprovalsByAddress ApprovalsByAddress `json:"approvalsByAddress"`
	DecodedInput       *DecodedInput      `json:"decodedInput,omitempty"`
}

// NewFailureResponse builds a failed result carrying reason and no asset data
func NewFailureResponse(reason string) *SimulateResponse {
	return &SimulateResponse{
		Success:            false,
		RevertReason:       &reason,
		InvolvedAddresses:  []string{},
		AssetChanges:       NewAssetChanges(),
		DeltasByAddress:    DeltasByAddress{},
		Approvals:          NewApprovalChanges(),
		ApprovalsByAddress: ApprovalsByAddress{},
	}
}
