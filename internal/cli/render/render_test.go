package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/deltasim/internal/domain"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
	token = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
)

func init() {
	color.NoColor = true
}

func TestSimulationRenderer_Success(t *testing.T) {
	gas := "51234"
	resp := &domain.SimulateResponse{
		Success:           true,
		GasUsed:           &gas,
		InvolvedAddresses: []string{alice, bob, token},
		DeltasByAddress: domain.DeltasByAddress{
			alice: {"native": "-1000", token: "-5"},
			bob:   {"native": "+1000", token: "+5"},
		},
		Approvals: domain.ApprovalChanges{
			ERC20: []domain.ERC20Approval{{Token: token, Owner: alice, Spender: bob, Amount: "115792089237316195423570985008687907853269984665640564039457584007913129639935", IsUnlimited: true}},
		},
		ApprovalsByAddress: domain.ApprovalsByAddress{
			alice: {token: {Spender: bob, IsUnlimited: true}},
		},
		DecodedInput: &domain.DecodedInput{
			Method:   "transfer",
			Standard: "ERC20",
			Args:     map[string]string{"amount": "5"},
		},
	}

	var out bytes.Buffer
	require.NoError(t, NewSimulationRenderer(&out, "sepolia", true).Render(resp))
	s := out.String()

	assert.Contains(t, s, "Simulation succeeded on sepolia")
	assert.Contains(t, s, "Gas used: 51234")
	assert.Contains(t, s, "transfer (ERC20)")
	assert.Contains(t, s, "amount: 5")
	assert.Contains(t, s, "Balance changes")
	assert.Contains(t, s, alice)
	assert.Contains(t, s, "-1000")
	assert.Contains(t, s, "+5")
	assert.Contains(t, s, "Approvals")
	assert.Contains(t, s, "unlimited")
	assert.Less(t, bytes.Index(out.Bytes(), []byte(alice)), bytes.Index(out.Bytes(), []byte(bob)))
}

func TestSimulationRenderer_Revert(t *testing.T) {
	var out bytes.Buffer
	resp := domain.NewFailureResponse("Not authorized")

	require.NoError(t, NewSimulationRenderer(&out, "localhost", false).Render(resp))

	assert.Contains(t, out.String(), "Transaction failed on localhost: Not authorized")
	assert.NotContains(t, out.String(), "Balance changes")
}

func TestSimulationRenderer_ShortAddresses(t *testing.T) {
	var out bytes.Buffer
	resp := &domain.SimulateResponse{
		Success:         true,
		DeltasByAddress: domain.DeltasByAddress{alice: {token + ":7": "-1"}},
	}

	require.NoError(t, NewSimulationRenderer(&out, "sepolia", false).Render(resp))

	assert.Contains(t, out.String(), "0x1111…1111")
	assert.Contains(t, out.String(), "0xa0b8…eb48 #7")
	assert.NotContains(t, out.String(), alice)
}

func TestNetworksRenderer(t *testing.T) {
	now := time.Now()
	result := &usecase.ListNetworksResult{Networks: []usecase.NetworkStatus{
		{
			Network:     domain.NetworkConfig{ID: "localhost", ChainID: 31337, Label: "Local Hardhat"},
			HasUpstream: true,
			Fork:        &domain.ForkState{NetworkID: "localhost", Status: domain.ForkStatusRunning, Port: 9545, LastActivity: &now},
		},
		{
			Network: domain.NetworkConfig{ID: "sepolia", ChainID: 11155111, Label: "Sepolia Testnet"},
		},
	}}

	var out bytes.Buffer
	require.NoError(t, NewNetworksRenderer(&out).Render(result))

	assert.Contains(t, out.String(), "Local Hardhat")
	assert.Contains(t, out.String(), "Running :9545")
	assert.Contains(t, out.String(), "11155111")
	assert.Contains(t, out.String(), "missing")
}

func TestNetworksRenderer_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewNetworksRenderer(&out).Render(&usecase.ListNetworksResult{}))
	assert.Equal(t, "No networks configured\n", out.String())
}

func TestHealthRenderer(t *testing.T) {
	var out bytes.Buffer
	report := &usecase.HealthReport{
		Status: domain.HealthHealthy,
		Forks: map[string]domain.ForkState{
			"sepolia":   {NetworkID: "sepolia", Status: domain.ForkStatusRefreshing, Port: 9546, BlockNumber: 7},
			"localhost": {NetworkID: "localhost", Status: domain.ForkStatusRunning, Port: 9545, BlockNumber: 12},
		},
		Uptime: 3700,
	}

	require.NoError(t, NewHealthRenderer(&out).Render(report))
	s := out.String()

	assert.Contains(t, s, "Server healthy (up 1h1m)")
	assert.Contains(t, s, "Refreshing")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("localhost")), bytes.Index(out.Bytes(), []byte("sepolia")))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{125 * time.Second, "2m5s"},
		{3*time.Hour + 4*time.Minute, "3h4m"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.in))
		})
	}
}
