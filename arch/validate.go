package arch

import (
	"fmt"

	"github.com/colorfulnotion/yan85/vmerrors"
	"golang.org/x/exp/slices"
)

// Validate checks the encoding invariants: distinct opcodes, distinct nonzero
// register identifiers, none == 0, a genuine field permutation and distinct
// syscall numbers.
func (c *Config) Validate() error {
	if _, err := NewOpcodeTable(c.Opcodes); err != nil {
		return fmt.Errorf("%w: %v", vmerrors.ErrInvalidConfig, err)
	}

	if c.Registers.None != NoneRegister {
		return fmt.Errorf("%w: none register must be 0x00, got 0x%02x", vmerrors.ErrInvalidConfig, c.Registers.None)
	}
	ids := c.Registers.IDs()
	seen := make([]byte, 0, NumRegisters)
	for n, id := range ids {
		if id == NoneRegister {
			return fmt.Errorf("%w: register %s must be nonzero", vmerrors.ErrInvalidConfig, RegisterNames[n])
		}
		if slices.Contains(seen, id) {
			return fmt.Errorf("%w: register id 0x%02x used twice", vmerrors.ErrInvalidConfig, id)
		}
		seen = append(seen, id)
	}

	order := []int{c.FieldOrder.Opcode, c.FieldOrder.Left, c.FieldOrder.Right}
	sorted := slices.Clone(order)
	slices.Sort(sorted)
	if !slices.Equal(sorted, []int{0, 1, 2}) {
		return fmt.Errorf("%w: field order %v is not a permutation of 0,1,2", vmerrors.ErrInvalidConfig, order)
	}

	sys := []byte{c.Syscalls.Open, c.Syscalls.ReadMemory, c.Syscalls.Write}
	slices.Sort(sys)
	if len(slices.Compact(sys)) != 3 {
		return fmt.Errorf("%w: syscall numbers must be distinct", vmerrors.ErrInvalidConfig)
	}
	return nil
}
