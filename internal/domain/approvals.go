package domain

import "strings"

// AggregateApprovals passes the raw approval lists through and builds the
// owner -> token view from ERC-20 approvals. The last approval for an
// (owner, token) pair wins, matching on-chain allowance state.
// ERC-721 and operator approvals only appear in the raw lists.
func AggregateApprovals(parsed ApprovalChanges) (ApprovalChanges, ApprovalsByAddress) {
	approvals := ApprovalChanges{
		ERC20:             nonNil(parsed.ERC20),
		ERC721:            nonNil(parsed.ERC721),
		OperatorApprovals: nonNil(parsed.OperatorApprovals),
	}

	byAddress := make(ApprovalsByAddress)
	for _, a := range approvals.ERC20 {
		owner := strings.ToLower(a.Owner)
		token := strings.ToLower(a.Token)

		tokens, ok := byAddress[owner]
		if !ok {
			tokens = make(map[string]AggregatedApproval)
			byAddress[owner] = tokens
		}
		tokens[token] = AggregatedApproval{
			Spender:     a.Spender,
			Amount:      a.Amount,
			IsUnlimited: a.IsUnlimited,
		}
	}

	return approvals, byAddress
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
