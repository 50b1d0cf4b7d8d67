// Package riscv implements the RV32IM guest dialect (§6): a flat linear
// address space, 32 general-purpose registers, and the ecall syscall
// convention (number in a7, arguments in a0..a4, return in a0). No
// third-party RISC-V core exists anywhere in the retrieved example corpus
// (checked every go.mod), so this interpreter is written directly against
// the base+M instruction semantics in original_source/src/isa/rv32i.rs
// rather than imported.
package riscv

import (
	"fmt"

	"github.com/ensiproject/ensi/internal/game/core"
	"github.com/ensiproject/ensi/internal/sandbox"
)

// addressSpace is the guest's flat memory size: plenty of room for a
// small bot binary plus the push buffer at a fixed offset.
const addressSpace = 1 << 20

// Register ABI names, for the ecall convention only.
const (
	regRA = 1
	regA0 = 10
	regA1 = 11
	regA2 = 12
	regA3 = 13
	regA4 = 14
	regA7 = 17
)

// CPU is one guest's RV32IM interpreter. It is long-lived across turns
// (§4.9 "the bot is a long-lived computation"); Load resets it, Resume
// suspends and resumes it fuel budget by fuel budget.
type CPU struct {
	regs    [32]uint32
	pc      uint32
	mem     []byte
	handler sandbox.Handler
}

// New returns a CPU with a zeroed address space and no image loaded.
func New() *CPU {
	return &CPU{mem: make([]byte, addressSpace)}
}

func (c *CPU) Load(image []byte) error {
	if len(image) > len(c.mem) {
		return fmt.Errorf("riscv: image is %d bytes, exceeds %d byte address space", len(image), len(c.mem))
	}
	for i := range c.mem {
		c.mem[i] = 0
	}
	copy(c.mem, image)
	c.regs = [32]uint32{}
	c.pc = 0
	return nil
}

func (c *CPU) PushBuffer(buf []byte, baseAddr uint32) error {
	end := uint64(baseAddr) + uint64(len(buf))
	if end > uint64(len(c.mem)) {
		return fmt.Errorf("riscv: push buffer [%#x, %#x) overruns %d byte address space", baseAddr, end, len(c.mem))
	}
	copy(c.mem[baseAddr:end], buf)
	return nil
}

func (c *CPU) SetHandler(h sandbox.Handler) { c.handler = h }

// Resume executes instructions until the guest yields, traps, or the fuel
// budget is exhausted. One instruction costs 1 fuel unit; an ecall costs
// an additional 4, reflecting the deterministic per-syscall tariff §4.9
// requires without needing a real cycle-accurate cost model.
const ecallTariff = 4

func (c *CPU) Resume(fuel uint64) (sandbox.Result, error) {
	var used uint64

	for used < fuel {
		word, ok := c.readMem(c.pc, 4)
		if !ok {
			return sandbox.Result{FuelUsed: used}, &core.GuestTrap{
				Kind: core.TrapMemoryFault, Detail: fmt.Sprintf("instruction fetch at %#x", c.pc), AtFuel: used,
			}
		}

		trap, ecall, yielded := c.step(word)
		used++
		if ecall {
			used += ecallTariff
		}
		if trap != nil {
			trap.AtFuel = used
			return sandbox.Result{FuelUsed: used}, trap
		}
		if yielded {
			return sandbox.Result{FuelUsed: used, Yielded: true}, nil
		}
	}

	return sandbox.Result{FuelUsed: used}, &core.GuestTrap{Kind: core.TrapFuelExhausted, AtFuel: used}
}

func (c *CPU) reg(i uint32) uint32 {
	if i == 0 {
		return 0
	}
	return c.regs[i]
}

func (c *CPU) setReg(i uint32, v uint32) {
	if i != 0 {
		c.regs[i] = v
	}
}

func (c *CPU) readMem(addr uint32, n int) (uint32, bool) {
	if uint64(addr)+uint64(n) > uint64(len(c.mem)) {
		return 0, false
	}
	var v uint32
	for i := 0; i < n; i++ {
		v |= uint32(c.mem[int(addr)+i]) << (8 * i)
	}
	return v, true
}

func (c *CPU) writeMem(addr uint32, n int, v uint32) bool {
	if uint64(addr)+uint64(n) > uint64(len(c.mem)) {
		return false
	}
	for i := 0; i < n; i++ {
		c.mem[int(addr)+i] = byte(v >> (8 * i))
	}
	return true
}

func bits(word uint32, hi, lo uint) uint32 {
	return (word >> lo) & ((1 << (hi - lo + 1)) - 1)
}

func signExtend(v uint32, width uint) int32 {
	shift := 32 - width
	return int32(v<<shift) >> shift
}

func memFault(addr uint32, access string, used uint64) *core.GuestTrap {
	return &core.GuestTrap{Kind: core.TrapMemoryFault, Detail: fmt.Sprintf("%s at %#x", access, addr), AtFuel: used}
}

func illegal(word uint32) *core.GuestTrap {
	return &core.GuestTrap{Kind: core.TrapIllegalInstruction, Detail: fmt.Sprintf("word %#08x", word)}
}

// step decodes and executes one instruction at c.pc, advancing c.pc on
// success. It returns (trap, wasEcall, yielded).
func (c *CPU) step(word uint32) (*core.GuestTrap, bool, bool) {
	opcode := bits(word, 6, 0)
	rd := bits(word, 11, 7)
	funct3 := bits(word, 14, 12)
	rs1 := bits(word, 19, 15)
	rs2 := bits(word, 24, 20)
	funct7 := bits(word, 31, 25)

	immI := signExtend(bits(word, 31, 20), 12)
	immS := signExtend(bits(word, 31, 25)<<5|bits(word, 11, 7), 12)
	immB := signExtend(bits(word, 31, 31)<<12|bits(word, 7, 7)<<11|bits(word, 30, 25)<<5|bits(word, 11, 8)<<1, 13)
	immU := bits(word, 31, 12) << 12
	immJ := signExtend(bits(word, 31, 31)<<20|bits(word, 19, 12)<<12|bits(word, 20, 20)<<11|bits(word, 30, 21)<<1, 21)

	next := c.pc + 4

	switch opcode {
	case 0b0110111: // LUI
		c.setReg(rd, immU)
	case 0b0010111: // AUIPC
		c.setReg(rd, c.pc+immU)
	case 0b1101111: // JAL
		c.setReg(rd, next)
		next = uint32(int32(c.pc) + immJ)
	case 0b1100111: // JALR
		if funct3 != 0 {
			return illegal(word), false, false
		}
		target := uint32(int32(c.reg(rs1)) + immI)
		c.setReg(rd, next)
		next = target &^ 1
	case 0b1100011: // branches
		a, b := c.reg(rs1), c.reg(rs2)
		taken := false
		switch funct3 {
		case 0b000:
			taken = a == b // BEQ
		case 0b001:
			taken = a != b // BNE
		case 0b100:
			taken = int32(a) < int32(b) // BLT
		case 0b101:
			taken = int32(a) >= int32(b) // BGE
		case 0b110:
			taken = a < b // BLTU
		case 0b111:
			taken = a >= b // BGEU
		default:
			return illegal(word), false, false
		}
		if taken {
			next = uint32(int32(c.pc) + immB)
		}
	case 0b0000011: // loads
		addr := uint32(int32(c.reg(rs1)) + immI)
		var n int
		switch funct3 {
		case 0b000, 0b100:
			n = 1
		case 0b001, 0b101:
			n = 2
		case 0b010:
			n = 4
		default:
			return illegal(word), false, false
		}
		v, ok := c.readMem(addr, n)
		if !ok {
			return memFault(addr, "load", 0), false, false
		}
		switch funct3 {
		case 0b000:
			v = uint32(int32(int8(v)))
		case 0b001:
			v = uint32(int32(int16(v)))
		}
		c.setReg(rd, v)
	case 0b0100011: // stores
		addr := uint32(int32(c.reg(rs1)) + immS)
		var n int
		switch funct3 {
		case 0b000:
			n = 1
		case 0b001:
			n = 2
		case 0b010:
			n = 4
		default:
			return illegal(word), false, false
		}
		if !c.writeMem(addr, n, c.reg(rs2)) {
			return memFault(addr, "store", 0), false, false
		}
	case 0b0010011: // OP-IMM
		a := c.reg(rs1)
		switch funct3 {
		case 0b000:
			c.setReg(rd, uint32(int32(a)+immI)) // ADDI
		case 0b010:
			c.setReg(rd, boolToReg(int32(a) < immI)) // SLTI
		case 0b011:
			c.setReg(rd, boolToReg(a < uint32(immI))) // SLTIU
		case 0b100:
			c.setReg(rd, a^uint32(immI)) // XORI
		case 0b110:
			c.setReg(rd, a|uint32(immI)) // ORI
		case 0b111:
			c.setReg(rd, a&uint32(immI)) // ANDI
		case 0b001:
			c.setReg(rd, a<<(rs2&0x1F)) // SLLI (rs2 field holds shamt)
		case 0b101:
			if funct7 == 0b0100000 {
				c.setReg(rd, uint32(int32(a)>>(rs2&0x1F))) // SRAI
			} else {
				c.setReg(rd, a>>(rs2&0x1F)) // SRLI
			}
		default:
			return illegal(word), false, false
		}
	case 0b0110011: // OP (R-type, plus M extension)
		a, b := c.reg(rs1), c.reg(rs2)
		if funct7 == 0b0000001 {
			c.setReg(rd, execM(funct3, a, b))
			break
		}
		switch funct3 {
		case 0b000:
			if funct7 == 0b0100000 {
				c.setReg(rd, a-b) // SUB
			} else {
				c.setReg(rd, a+b) // ADD
			}
		case 0b001:
			c.setReg(rd, a<<(b&0x1F)) // SLL
		case 0b010:
			c.setReg(rd, boolToReg(int32(a) < int32(b))) // SLT
		case 0b011:
			c.setReg(rd, boolToReg(a < b)) // SLTU
		case 0b100:
			c.setReg(rd, a^b) // XOR
		case 0b101:
			if funct7 == 0b0100000 {
				c.setReg(rd, uint32(int32(a)>>(b&0x1F))) // SRA
			} else {
				c.setReg(rd, a>>(b&0x1F)) // SRL
			}
		case 0b110:
			c.setReg(rd, a|b) // OR
		case 0b111:
			c.setReg(rd, a&b) // AND
		default:
			return illegal(word), false, false
		}
	case 0b1110011: // SYSTEM
		if immI == 1 {
			return &core.GuestTrap{Kind: core.TrapIllegalInstruction, Detail: "ebreak"}, false, false
		}
		num := c.reg(regA7)
		args := [5]uint32{c.reg(regA0), c.reg(regA1), c.reg(regA2), c.reg(regA3), c.reg(regA4)}
		if c.handler == nil {
			return &core.GuestTrap{Kind: core.TrapABIViolation, Detail: "no syscall handler bound"}, false, false
		}
		ret, err := c.handler.Syscall(num, args)
		if err != nil {
			trap, ok := err.(*core.GuestTrap)
			if !ok {
				trap = &core.GuestTrap{Kind: core.TrapABIViolation, Detail: err.Error()}
			}
			return trap, true, false
		}
		c.setReg(regA0, ret)
		c.pc = next
		return nil, true, c.handler.Yielded()
	default:
		return illegal(word), false, false
	}

	c.pc = next
	return nil, false, false
}

func boolToReg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// execM implements the RV32M multiply/divide extension. Division by zero
// follows the RISC-V spec's defined (not trapping) results.
func execM(funct3 uint32, a, b uint32) uint32 {
	switch funct3 {
	case 0b000: // MUL
		return a * b
	case 0b001: // MULH (signed x signed, high 32 bits)
		return uint32((int64(int32(a)) * int64(int32(b))) >> 32)
	case 0b010: // MULHSU (signed x unsigned)
		return uint32((int64(int32(a)) * int64(uint64(b))) >> 32)
	case 0b011: // MULHU (unsigned x unsigned)
		return uint32((uint64(a) * uint64(b)) >> 32)
	case 0b100: // DIV
		if b == 0 {
			return 0xFFFFFFFF
		}
		if a == 0x80000000 && b == 0xFFFFFFFF {
			return a
		}
		return uint32(int32(a) / int32(b))
	case 0b101: // DIVU
		if b == 0 {
			return 0xFFFFFFFF
		}
		return a / b
	case 0b110: // REM
		if b == 0 {
			return a
		}
		if a == 0x80000000 && b == 0xFFFFFFFF {
			return 0
		}
		return uint32(int32(a) % int32(b))
	case 0b111: // REMU
		if b == 0 {
			return a
		}
		return a % b
	default:
		return 0
	}
}
