package trace

// Step is one executed instruction as seen after dispatch.
type Step struct {
	N           int    `json:"step"`
	IP          uint8  `json:"ip"`
	Raw         []byte `json:"raw"`
	Instruction string `json:"instruction"`

	PostRegisters map[string]uint8 `json:"postRegisters,omitempty"`
	PostFlags     string           `json:"postFlags,omitempty"`
	Syscall       string           `json:"syscall,omitempty"`
	Error         string           `json:"error,omitempty"`
}

func NewStep(n int, ip uint8, raw []byte) *Step {
	return &Step{
		N:   n,
		IP:  ip,
		Raw: append([]byte(nil), raw...),
	}
}

// SetPostRegisters copies regs so the caller may keep mutating its map.
func (s *Step) SetPostRegisters(regs map[string]uint8) {
	s.PostRegisters = make(map[string]uint8, len(regs))
	for k, v := range regs {
		s.PostRegisters[k] = v
	}
}

// StepWriter receives one record per executed instruction.
type StepWriter interface {
	WriteStep(step *Step) error
}
