package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// Render renders the configured networks with their fork status
func (r *NetworksRenderer) Render(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	t := newTable(r.out, table.Row{"ID", "Chain ID", "Label", "Upstream", "Fork"})
	for _, n := range result.Networks {
		upstream := FormatSuccess("configured")
		if !n.HasUpstream {
			upstream = FormatWarning("missing")
		}
		fork := "-"
		if n.Fork != nil {
			fork = formatStatus(n.Fork.Status)
			if n.Fork.Port != 0 {
				fork += " :" + strconv.Itoa(n.Fork.Port)
			}
		}
		t.AppendRow(table.Row{n.Network.ID, n.Network.ChainID, n.Network.Label, upstream, fork})
	}
	t.Render()

	return nil
}

var _ Renderer[*usecase.ListNetworksResult] = (*NetworksRenderer)(nil)
