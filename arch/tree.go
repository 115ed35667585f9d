package arch

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Tree renders the configuration and the memory map it implies.
func (c *Config) Tree() string {
	root := treeprint.NewWithRoot("config")

	ops := root.AddBranch("opcodes")
	for _, k := range Kinds {
		b, _ := c.Opcodes.Byte(k)
		ops.AddNode(fmt.Sprintf("%s = 0x%02x", k, b))
	}

	order := root.AddBranch("field order")
	order.AddNode(fmt.Sprintf("opcode = byte %d", c.FieldOrder.Opcode))
	order.AddNode(fmt.Sprintf("left   = byte %d", c.FieldOrder.Left))
	order.AddNode(fmt.Sprintf("right  = byte %d", c.FieldOrder.Right))

	regs := root.AddBranch("registers")
	for n, id := range c.Registers.IDs() {
		regs.AddNode(fmt.Sprintf("%s = 0x%02x @ 0x%03x", RegisterNames[n], id, RegisterBase+n))
	}
	regs.AddNode(fmt.Sprintf("NONE = 0x%02x", c.Registers.None))

	sys := root.AddBranch("syscalls")
	sys.AddNode(fmt.Sprintf("open = 0x%02x", c.Syscalls.Open))
	sys.AddNode(fmt.Sprintf("read_memory = 0x%02x", c.Syscalls.ReadMemory))
	sys.AddNode(fmt.Sprintf("write = 0x%02x", c.Syscalls.Write))

	flags := root.AddBranch("cmp flags")
	flags.AddNode(fmt.Sprintf("L smaller = 0x%02x", c.CmpFlags.Smaller))
	flags.AddNode(fmt.Sprintf("G bigger = 0x%02x", c.CmpFlags.Bigger))
	flags.AddNode(fmt.Sprintf("E equal = 0x%02x", c.CmpFlags.Equal))
	flags.AddNode(fmt.Sprintf("N not_equal = 0x%02x", c.CmpFlags.NotEqual))
	flags.AddNode(fmt.Sprintf("Z zero = 0x%02x", c.CmpFlags.Zero))

	mem := root.AddBranch("memory map")
	mem.AddNode(fmt.Sprintf("code      0x%03x-0x%03x (%d bytes per instruction)", CodeBase, RAMBase-1, InstructionSize))
	mem.AddNode(fmt.Sprintf("ram       0x%03x-0x%03x", RAMBase, RAMBase+RAMSize-1))
	mem.AddNode(fmt.Sprintf("registers 0x%03x-0x%03x", RegisterBase, RegisterBase+NumRegisters-1))

	return root.String()
}
