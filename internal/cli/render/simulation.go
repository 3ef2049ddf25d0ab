package render

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/trebuchet-org/deltasim/internal/domain"
)

// SimulationRenderer renders a simulation response as tables
type SimulationRenderer struct {
	out       io.Writer
	networkID string
	full      bool
}

// NewSimulationRenderer creates a new simulation renderer. With full set,
// addresses are printed unabbreviated.
func NewSimulationRenderer(out io.Writer, networkID string, full bool) *SimulationRenderer {
	return &SimulationRenderer{
		out:       out,
		networkID: networkID,
		full:      full,
	}
}

// Render renders resp
func (r *SimulationRenderer) Render(resp *domain.SimulateResponse) error {
	if resp.Success {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Simulation succeeded on %s", r.networkID)))
	} else {
		reason := "unknown reason"
		if resp.RevertReason != nil {
			reason = *resp.RevertReason
		}
		fmt.Fprintln(r.out, FormatError(fmt.Sprintf("Transaction failed on %s: %s", r.networkID, reason)))
	}

	if resp.GasUsed != nil {
		fmt.Fprintf(r.out, "   Gas used: %s\n", *resp.GasUsed)
	}
	if in := resp.DecodedInput; in != nil {
		fmt.Fprintf(r.out, "   Call:     %s (%s)\n", color.CyanString(in.Method), in.Standard)
		keys := lo.Keys(in.Args)
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(r.out, "     %s: %s\n", k, in.Args[k])
		}
	}

	if !resp.Success {
		return nil
	}

	fmt.Fprintln(r.out)
	r.renderDeltas(resp.DeltasByAddress)

	if len(resp.ApprovalsByAddress) > 0 || len(resp.Approvals.ERC721) > 0 || len(resp.Approvals.OperatorApprovals) > 0 {
		fmt.Fprintln(r.out)
		r.renderApprovals(resp.Approvals)
	}
	return nil
}

func (r *SimulationRenderer) renderDeltas(deltas domain.DeltasByAddress) {
	if len(deltas) == 0 {
		fmt.Fprintln(r.out, "No balance changes")
		return
	}

	fmt.Fprintln(r.out, color.New(color.Bold).Sprint("Balance changes"))
	t := newTable(r.out, table.Row{"Address", "Asset", "Delta"})

	addresses := lo.Keys(deltas)
	slices.Sort(addresses)
	for _, addr := range addresses {
		assets := lo.Keys(deltas[addr])
		slices.Sort(assets)
		for i, asset := range assets {
			shown := ""
			if i == 0 {
				shown = r.address(addr)
			}
			t.AppendRow(table.Row{shown, r.asset(asset), colorDelta(deltas[addr][asset])})
		}
	}
	t.Render()
}

func (r *SimulationRenderer) renderApprovals(approvals domain.ApprovalChanges) {
	fmt.Fprintln(r.out, color.New(color.Bold).Sprint("Approvals"))
	t := newTable(r.out, table.Row{"Owner", "Token", "Spender", "Amount"})

	for _, a := range approvals.ERC20 {
		amount := a.Amount
		if a.IsUnlimited {
			amount = color.YellowString("unlimited")
		}
		t.AppendRow(table.Row{r.address(a.Owner), r.address(a.Token), r.address(a.Spender), amount})
	}
	for _, a := range approvals.ERC721 {
		t.AppendRow(table.Row{r.address(a.Owner), r.address(a.Token), r.address(a.Spender), "token #" + a.TokenID})
	}
	for _, a := range approvals.OperatorApprovals {
		amount := "revoked"
		if a.Approved {
			amount = color.YellowString("all tokens")
		}
		t.AppendRow(table.Row{r.address(a.Owner), r.address(a.Token), r.address(a.Operator), amount})
	}
	t.Render()
}

func (r *SimulationRenderer) address(addr string) string {
	if r.full {
		return addr
	}
	return shortAddress(addr)
}

// asset renders "native", a token address, or token:id
func (r *SimulationRenderer) asset(key string) string {
	if key == domain.NativeAssetKey {
		return key
	}
	token, id, found := strings.Cut(key, ":")
	if !found {
		return r.address(token)
	}
	return r.address(token) + " #" + id
}

func colorDelta(delta string) string {
	if strings.HasPrefix(delta, "-") {
		return color.RedString(delta)
	}
	return color.GreenString(delta)
}

var _ Renderer[*domain.SimulateResponse] = (*SimulationRenderer)(nil)
