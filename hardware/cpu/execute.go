// This file is part of GopherZX.
//
// GopherZX is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GopherZX is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GopherZX.  If not, see <https://www.gnu.org/licenses/>.

package cpu

import (
	"github.com/jetsetilly/gopherzx/hardware/cpu/registers"
)

// register indices as used by the instruction encoding: the y and z octal
// fields select from B C D E H L (HL) A.
const (
	idxB = iota
	idxC
	idxD
	idxE
	idxH
	idxL
	idxHL
	idxA
)

// getR returns the 8-bit register or (HL) value selected by an encoded
// register field.
func (mc *CPU) getR(i uint8) uint8 {
	switch i {
	case idxB:
		return mc.Reg.B
	case idxC:
		return mc.Reg.C
	case idxD:
		return mc.Reg.D
	case idxE:
		return mc.Reg.E
	case idxH:
		return mc.Reg.H
	case idxL:
		return mc.Reg.L
	case idxHL:
		return mc.mem.Read(mc.Reg.HL())
	}
	return mc.Reg.A
}

func (mc *CPU) setR(i uint8, v uint8) {
	switch i {
	case idxB:
		mc.Reg.B = v
	case idxC:
		mc.Reg.C = v
	case idxD:
		mc.Reg.D = v
	case idxE:
		mc.Reg.E = v
	case idxH:
		mc.Reg.H = v
	case idxL:
		mc.Reg.L = v
	case idxHL:
		mc.mem.Write(mc.Reg.HL(), v)
	case idxA:
		mc.Reg.A = v
	}
}

// condition returns the truth of an encoded condition field: NZ Z NC C PO
// PE P M.
func (mc *CPU) condition(i uint8) bool {
	switch i {
	case 0:
		return mc.Reg.F&registers.FlagZ == 0
	case 1:
		return mc.Reg.F&registers.FlagZ != 0
	case 2:
		return mc.Reg.F&registers.FlagC == 0
	case 3:
		return mc.Reg.F&registers.FlagC != 0
	case 4:
		return mc.Reg.F&registers.FlagP == 0
	case 5:
		return mc.Reg.F&registers.FlagP != 0
	case 6:
		return mc.Reg.F&registers.FlagS == 0
	}
	return mc.Reg.F&registers.FlagS != 0
}

// alu dispatches an encoded ALU operation against the accumulator: ADD ADC
// SUB SBC AND XOR OR CP.
func (mc *CPU) alu(i uint8, v uint8) {
	switch i {
	case 0:
		mc.add8(v, false)
	case 1:
		mc.add8(v, mc.Reg.F&registers.FlagC != 0)
	case 2:
		mc.sub8(v, false, true)
	case 3:
		mc.sub8(v, mc.Reg.F&registers.FlagC != 0, true)
	case 4:
		mc.and8(v)
	case 5:
		mc.xor8(v)
	case 6:
		mc.or8(v)
	case 7:
		mc.sub8(v, false, false)
	}
}

// executeOne fetches and executes a single instruction, advancing the
// clock by the instruction's T-state count.
func (mc *CPU) executeOne() {
	op := mc.fetch()
	mc.Refresh.Inc(1)

	switch op {
	case 0xcb:
		mc.executeCB()
	case 0xed:
		mc.executeED()
	case 0xdd:
		mc.executeIndex(&mc.IX)
	case 0xfd:
		mc.executeIndex(&mc.IY)
	default:
		mc.executeMain(op)
	}
}

func (mc *CPU) executeMain(op uint8) {
	// the load and ALU quarters of the opcode map are regular and are
	// handled by field decode. everything else is a straight switch
	if op >= 0x40 && op < 0x80 && op != 0x76 {
		src := op & 0x07
		dst := (op >> 3) & 0x07
		mc.setR(dst, mc.getR(src))
		if src == idxHL || dst == idxHL {
			mc.clk.Advance(7)
		} else {
			mc.clk.Advance(4)
		}
		return
	}

	if op >= 0x80 && op < 0xc0 {
		src := op & 0x07
		mc.alu((op>>3)&0x07, mc.getR(src))
		if src == idxHL {
			mc.clk.Advance(7)
		} else {
			mc.clk.Advance(4)
		}
		return
	}

	switch op {
	case 0x00: // NOP
		mc.clk.Advance(4)

	case 0x01: // LD BC,nn
		mc.Reg.SetBC(mc.fetch16())
		mc.clk.Advance(10)
	case 0x11: // LD DE,nn
		mc.Reg.SetDE(mc.fetch16())
		mc.clk.Advance(10)
	case 0x21: // LD HL,nn
		mc.Reg.SetHL(mc.fetch16())
		mc.clk.Advance(10)
	case 0x31: // LD SP,nn
		mc.SP = mc.fetch16()
		mc.clk.Advance(10)

	case 0x02: // LD (BC),A
		mc.mem.Write(mc.Reg.BC(), mc.Reg.A)
		mc.clk.Advance(7)
	case 0x12: // LD (DE),A
		mc.mem.Write(mc.Reg.DE(), mc.Reg.A)
		mc.clk.Advance(7)
	case 0x0a: // LD A,(BC)
		mc.Reg.A = mc.mem.Read(mc.Reg.BC())
		mc.clk.Advance(7)
	case 0x1a: // LD A,(DE)
		mc.Reg.A = mc.mem.Read(mc.Reg.DE())
		mc.clk.Advance(7)

	case 0x22: // LD (nn),HL
		mc.write16(mc.fetch16(), mc.Reg.HL())
		mc.clk.Advance(16)
	case 0x2a: // LD HL,(nn)
		mc.Reg.SetHL(mc.read16(mc.fetch16()))
		mc.clk.Advance(16)
	case 0x32: // LD (nn),A
		mc.mem.Write(mc.fetch16(), mc.Reg.A)
		mc.clk.Advance(13)
	case 0x3a: // LD A,(nn)
		mc.Reg.A = mc.mem.Read(mc.fetch16())
		mc.clk.Advance(13)

	case 0x03: // INC BC
		mc.Reg.SetBC(mc.Reg.BC() + 1)
		mc.clk.Advance(6)
	case 0x13: // INC DE
		mc.Reg.SetDE(mc.Reg.DE() + 1)
		mc.clk.Advance(6)
	case 0x23: // INC HL
		mc.Reg.SetHL(mc.Reg.HL() + 1)
		mc.clk.Advance(6)
	case 0x33: // INC SP
		mc.SP++
		mc.clk.Advance(6)
	case 0x0b: // DEC BC
		mc.Reg.SetBC(mc.Reg.BC() - 1)
		mc.clk.Advance(6)
	case 0x1b: // DEC DE
		mc.Reg.SetDE(mc.Reg.DE() - 1)
		mc.clk.Advance(6)
	case 0x2b: // DEC HL
		mc.Reg.SetHL(mc.Reg.HL() - 1)
		mc.clk.Advance(6)
	case 0x3b: // DEC SP
		mc.SP--
		mc.clk.Advance(6)

	case 0x04, 0x0c, 0x14, 0x1c, 0x24, 0x2c, 0x3c: // INC r
		i := (op >> 3) & 0x07
		mc.setR(i, mc.inc8(mc.getR(i)))
		mc.clk.Advance(4)
	case 0x34: // INC (HL)
		mc.mem.Write(mc.Reg.HL(), mc.inc8(mc.mem.Read(mc.Reg.HL())))
		mc.clk.Advance(11)
	case 0x05, 0x0d, 0x15, 0x1d, 0x25, 0x2d, 0x3d: // DEC r
		i := (op >> 3) & 0x07
		mc.setR(i, mc.dec8(mc.getR(i)))
		mc.clk.Advance(4)
	case 0x35: // DEC (HL)
		mc.mem.Write(mc.Reg.HL(), mc.dec8(mc.mem.Read(mc.Reg.HL())))
		mc.clk.Advance(11)

	case 0x06, 0x0e, 0x16, 0x1e, 0x26, 0x2e, 0x3e: // LD r,n
		mc.setR((op>>3)&0x07, mc.fetch())
		mc.clk.Advance(7)
	case 0x36: // LD (HL),n
		mc.mem.Write(mc.Reg.HL(), mc.fetch())
		mc.clk.Advance(10)

	case 0x07: // RLCA
		keep := mc.Reg.F & (registers.FlagS | registers.FlagZ | registers.FlagP)
		a := mc.Reg.A
		mc.Reg.A = a<<1 | a>>7
		f := keep | mc.Reg.A&(registers.Flag3|registers.Flag5)
		if a&0x80 != 0 {
			f |= registers.FlagC
		}
		mc.Reg.F = f
		mc.clk.Advance(4)
	case 0x0f: // RRCA
		keep := mc.Reg.F & (registers.FlagS | registers.FlagZ | registers.FlagP)
		a := mc.Reg.A
		mc.Reg.A = a>>1 | a<<7
		f := keep | mc.Reg.A&(registers.Flag3|registers.Flag5)
		if a&0x01 != 0 {
			f |= registers.FlagC
		}
		mc.Reg.F = f
		mc.clk.Advance(4)
	case 0x17: // RLA
		keep := mc.Reg.F & (registers.FlagS | registers.FlagZ | registers.FlagP)
		a := mc.Reg.A
		mc.Reg.A = a << 1
		if mc.Reg.F&registers.FlagC != 0 {
			mc.Reg.A |= 0x01
		}
		f := keep | mc.Reg.A&(registers.Flag3|registers.Flag5)
		if a&0x80 != 0 {
			f |= registers.FlagC
		}
		mc.Reg.F = f
		mc.clk.Advance(4)
	case 0x1f: // RRA
		keep := mc.Reg.F & (registers.FlagS | registers.FlagZ | registers.FlagP)
		a := mc.Reg.A
		mc.Reg.A = a >> 1
		if mc.Reg.F&registers.FlagC != 0 {
			mc.Reg.A |= 0x80
		}
		f := keep | mc.Reg.A&(registers.Flag3|registers.Flag5)
		if a&0x01 != 0 {
			f |= registers.FlagC
		}
		mc.Reg.F = f
		mc.clk.Advance(4)

	case 0x08: // EX AF,AF'
		mc.Reg.A, mc.Alt.A = mc.Alt.A, mc.Reg.A
		mc.Reg.F, mc.Alt.F = mc.Alt.F, mc.Reg.F
		mc.clk.Advance(4)

	case 0x09: // ADD HL,BC
		mc.Reg.SetHL(mc.add16(mc.Reg.HL(), mc.Reg.BC()))
		mc.clk.Advance(11)
	case 0x19: // ADD HL,DE
		mc.Reg.SetHL(mc.add16(mc.Reg.HL(), mc.Reg.DE()))
		mc.clk.Advance(11)
	case 0x29: // ADD HL,HL
		mc.Reg.SetHL(mc.add16(mc.Reg.HL(), mc.Reg.HL()))
		mc.clk.Advance(11)
	case 0x39: // ADD HL,SP
		mc.Reg.SetHL(mc.add16(mc.Reg.HL(), mc.SP))
		mc.clk.Advance(11)

	case 0x10: // DJNZ e
		e := int8(mc.fetch())
		mc.Reg.B--
		if mc.Reg.B != 0 {
			mc.PC = uint16(int32(mc.PC) + int32(e))
			mc.clk.Advance(13)
		} else {
			mc.clk.Advance(8)
		}
	case 0x18: // JR e
		e := int8(mc.fetch())
		mc.PC = uint16(int32(mc.PC) + int32(e))
		mc.clk.Advance(12)
	case 0x20, 0x28, 0x30, 0x38: // JR cc,e
		e := int8(mc.fetch())
		if mc.condition((op >> 3) & 0x03) {
			mc.PC = uint16(int32(mc.PC) + int32(e))
			mc.clk.Advance(12)
		} else {
			mc.clk.Advance(7)
		}

	case 0x27: // DAA
		mc.daa()
		mc.clk.Advance(4)
	case 0x2f: // CPL
		mc.Reg.A = ^mc.Reg.A
		f := mc.Reg.F &^ (registers.Flag3 | registers.Flag5)
		f |= mc.Reg.A & (registers.Flag3 | registers.Flag5)
		mc.Reg.F = f | registers.FlagH | registers.FlagN
		mc.clk.Advance(4)
	case 0x37: // SCF
		f := mc.Reg.F & (registers.FlagS | registers.FlagZ | registers.FlagP)
		f |= mc.Reg.A & (registers.Flag3 | registers.Flag5)
		mc.Reg.F = f | registers.FlagC
		mc.clk.Advance(4)
	case 0x3f: // CCF
		f := mc.Reg.F & (registers.FlagS | registers.FlagZ | registers.FlagP)
		f |= mc.Reg.A & (registers.Flag3 | registers.Flag5)
		if mc.Reg.F&registers.FlagC != 0 {
			f |= registers.FlagH
		} else {
			f |= registers.FlagC
		}
		mc.Reg.F = f
		mc.clk.Advance(4)

	case 0x76: // HALT
		mc.Halted = true
		mc.HaltPos = mc.clk.T
		mc.PC--
		mc.clk.Advance(4)

	case 0xc0, 0xc8, 0xd0, 0xd8, 0xe0, 0xe8, 0xf0, 0xf8: // RET cc
		if mc.condition((op >> 3) & 0x07) {
			mc.PC = mc.pop16()
			mc.clk.Advance(11)
		} else {
			mc.clk.Advance(5)
		}
	case 0xc9: // RET
		mc.PC = mc.pop16()
		mc.clk.Advance(10)

	case 0xc1: // POP BC
		mc.Reg.SetBC(mc.pop16())
		mc.clk.Advance(10)
	case 0xd1: // POP DE
		mc.Reg.SetDE(mc.pop16())
		mc.clk.Advance(10)
	case 0xe1: // POP HL
		mc.Reg.SetHL(mc.pop16())
		mc.clk.Advance(10)
	case 0xf1: // POP AF
		mc.Reg.SetAF(mc.pop16())
		mc.clk.Advance(10)

	case 0xc5: // PUSH BC
		mc.push16(mc.Reg.BC())
		mc.clk.Advance(11)
	case 0xd5: // PUSH DE
		mc.push16(mc.Reg.DE())
		mc.clk.Advance(11)
	case 0xe5: // PUSH HL
		mc.push16(mc.Reg.HL())
		mc.clk.Advance(11)
	case 0xf5: // PUSH AF
		mc.push16(mc.Reg.AF())
		mc.clk.Advance(11)

	case 0xc3: // JP nn
		mc.PC = mc.fetch16()
		mc.clk.Advance(10)
	case 0xc2, 0xca, 0xd2, 0xda, 0xe2, 0xea, 0xf2, 0xfa: // JP cc,nn
		nn := mc.fetch16()
		if mc.condition((op >> 3) & 0x07) {
			mc.PC = nn
		}
		mc.clk.Advance(10)

	case 0xcd: // CALL nn
		nn := mc.fetch16()
		mc.push16(mc.PC)
		mc.PC = nn
		mc.clk.Advance(17)
	case 0xc4, 0xcc, 0xd4, 0xdc, 0xe4, 0xec, 0xf4, 0xfc: // CALL cc,nn
		nn := mc.fetch16()
		if mc.condition((op >> 3) & 0x07) {
			mc.push16(mc.PC)
			mc.PC = nn
			mc.clk.Advance(17)
		} else {
			mc.clk.Advance(10)
		}

	case 0xc7, 0xcf, 0xd7, 0xdf, 0xe7, 0xef, 0xf7, 0xff: // RST p
		mc.push16(mc.PC)
		mc.PC = uint16(op & 0x38)
		mc.clk.Advance(11)

	case 0xc6, 0xce, 0xd6, 0xde, 0xe6, 0xee, 0xf6, 0xfe: // ALU A,n
		mc.alu((op>>3)&0x07, mc.fetch())
		mc.clk.Advance(7)

	case 0xd3: // OUT (n),A
		n := mc.fetch()
		mc.ports.Out(uint16(mc.Reg.A)<<8|uint16(n), mc.Reg.A)
		mc.clk.Advance(11)
	case 0xdb: // IN A,(n)
		n := mc.fetch()
		mc.Reg.A = mc.ports.In(uint16(mc.Reg.A)<<8 | uint16(n))
		mc.clk.Advance(11)

	case 0xd9: // EXX
		mc.Reg.B, mc.Alt.B = mc.Alt.B, mc.Reg.B
		mc.Reg.C, mc.Alt.C = mc.Alt.C, mc.Reg.C
		mc.Reg.D, mc.Alt.D = mc.Alt.D, mc.Reg.D
		mc.Reg.E, mc.Alt.E = mc.Alt.E, mc.Reg.E
		mc.Reg.H, mc.Alt.H = mc.Alt.H, mc.Reg.H
		mc.Reg.L, mc.Alt.L = mc.Alt.L, mc.Reg.L
		mc.clk.Advance(4)

	case 0xe3: // EX (SP),HL
		v := mc.read16(mc.SP)
		mc.write16(mc.SP, mc.Reg.HL())
		mc.Reg.SetHL(v)
		mc.clk.Advance(19)
	case 0xe9: // JP (HL)
		mc.PC = mc.Reg.HL()
		mc.clk.Advance(4)
	case 0xeb: // EX DE,HL
		de := mc.Reg.DE()
		mc.Reg.SetDE(mc.Reg.HL())
		mc.Reg.SetHL(de)
		mc.clk.Advance(4)

	case 0xf3: // DI
		mc.IFF1 = false
		mc.IFF2 = false
		mc.clk.Advance(4)
	case 0xfb: // EI
		mc.IFF1 = true
		mc.IFF2 = true
		mc.EIPos = mc.clk.T
		mc.pendingEI = true
		mc.clk.Advance(4)

	case 0xf9: // LD SP,HL
		mc.SP = mc.Reg.HL()
		mc.clk.Advance(6)
	}
}
