package domain

// NetworkConfig describes an upstream network that can be forked.
// It is loaded once at startup and never mutated afterwards.
type NetworkConfig struct {
	ID      string `json:"id" toml:"id" yaml:"id"`
	ChainID uint64 `json:"chainId" toml:"chain_id" yaml:"chain_id"`
	RPCURL  string `json:"-" toml:"rpc_url" yaml:"rpc_url"`
	Label   string `json:"label" toml:"label" yaml:"label"`
}

// HasUpstream reports whether an upstream RPC URL is configured
func (n NetworkConfig) HasUpstream() bool {
	return n.RPCURL != ""
}
