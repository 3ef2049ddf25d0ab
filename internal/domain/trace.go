package domain

// CallTrace is one frame of a callTracer call tree. Each frame owns its
// children; the tree is never shared or mutated after decoding.
//
// Quantities and byte payloads are kept as the hex strings the node
// returned so a single odd field never fails decoding of the whole tree.
type CallTrace struct {
	Type         string      `json:"type"`
	From         string      `json:"from"`
	To           string      `json:"to,omitempty"`
	Value        string      `json:"value,omitempty"`
	Gas          string      `json:"gas,omitempty"`
	GasUsed      string      `json:"gasUsed,omitempty"`
	Input        string      `json:"input,omitempty"`
	Output       string      `json:"output,omitempty"`
	Error        string      `json:"error,omitempty"`
	RevertReason string      `json:"revertReason,omitempty"`
	Calls        []CallTrace `json:"calls,omitempty"`
	Logs         []TraceLog  `json:"logs,omitempty"`
}

// Failed reports whether the frame reverted or errored
func (c *CallTrace) Failed() bool {
	return c.Error != "" || c.RevertReason != ""
}

// TraceLog is a log emitted directly in a call frame
type TraceLog struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// TraceResult is the normalized outcome of tracing one transaction
type TraceResult struct {
	Success      bool
	RevertReason string
	// GasUsed is a decimal string, empty when unknown
	GasUsed   string
	CallTrace *CallTrace
	// Logs are the flattened logs in emission order
	Logs []TraceLog
	// Traced is false when the result came from the plain-call fallback
	Traced bool
}
