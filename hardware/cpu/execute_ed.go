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

// ldBlockFlags sets the flags common to the LDI/LDD group. n is the sum of
// the accumulator and the byte just transferred.
func (mc *CPU) ldBlockFlags(moved uint8) {
	f := mc.Reg.F & (registers.FlagS | registers.FlagZ | registers.FlagC)
	n := mc.Reg.A + moved
	if n&0x08 != 0 {
		f |= registers.Flag3
	}
	if n&0x02 != 0 {
		f |= registers.Flag5
	}
	if mc.Reg.BC() != 0 {
		f |= registers.FlagP
	}
	mc.Reg.F = f
}

// cpBlockFlags sets the flags common to the CPI/CPD group.
func (mc *CPU) cpBlockFlags(value uint8) {
	a := mc.Reg.A
	r := a - value

	f := mc.Reg.F&registers.FlagC | registers.FlagN
	f |= r & registers.FlagS
	if r == 0 {
		f |= registers.FlagZ
	}
	if a&0x0f < value&0x0f {
		f |= registers.FlagH
		r--
	}
	if r&0x08 != 0 {
		f |= registers.Flag3
	}
	if r&0x02 != 0 {
		f |= registers.Flag5
	}
	if mc.Reg.BC() != 0 {
		f |= registers.FlagP
	}
	mc.Reg.F = f
}

func (mc *CPU) executeED() {
	op := mc.fetch()
	mc.Refresh.Inc(1)

	switch op {
	case 0x40, 0x48, 0x50, 0x58, 0x60, 0x68, 0x70, 0x78: // IN r,(C)
		v := mc.ports.In(mc.Reg.BC())
		mc.inFlags(v)
		y := (op >> 3) & 0x07
		if y != idxHL { // IN (C) affects flags only
			mc.setR(y, v)
		}
		mc.clk.Advance(12)

	case 0x41, 0x49, 0x51, 0x59, 0x61, 0x69, 0x71, 0x79: // OUT (C),r
		y := (op >> 3) & 0x07
		v := uint8(0) // OUT (C),0 for the undocumented slot
		if y != idxHL {
			v = mc.getR(y)
		}
		mc.ports.Out(mc.Reg.BC(), v)
		mc.clk.Advance(12)

	case 0x42: // SBC HL,BC
		mc.sbc16(mc.Reg.BC())
		mc.clk.Advance(15)
	case 0x52: // SBC HL,DE
		mc.sbc16(mc.Reg.DE())
		mc.clk.Advance(15)
	case 0x62: // SBC HL,HL
		mc.sbc16(mc.Reg.HL())
		mc.clk.Advance(15)
	case 0x72: // SBC HL,SP
		mc.sbc16(mc.SP)
		mc.clk.Advance(15)

	case 0x4a: // ADC HL,BC
		mc.adc16(mc.Reg.BC())
		mc.clk.Advance(15)
	case 0x5a: // ADC HL,DE
		mc.adc16(mc.Reg.DE())
		mc.clk.Advance(15)
	case 0x6a: // ADC HL,HL
		mc.adc16(mc.Reg.HL())
		mc.clk.Advance(15)
	case 0x7a: // ADC HL,SP
		mc.adc16(mc.SP)
		mc.clk.Advance(15)

	case 0x43: // LD (nn),BC
		mc.write16(mc.fetch16(), mc.Reg.BC())
		mc.clk.Advance(20)
	case 0x53: // LD (nn),DE
		mc.write16(mc.fetch16(), mc.Reg.DE())
		mc.clk.Advance(20)
	case 0x63: // LD (nn),HL
		mc.write16(mc.fetch16(), mc.Reg.HL())
		mc.clk.Advance(20)
	case 0x73: // LD (nn),SP
		mc.write16(mc.fetch16(), mc.SP)
		mc.clk.Advance(20)

	case 0x4b: // LD BC,(nn)
		mc.Reg.SetBC(mc.read16(mc.fetch16()))
		mc.clk.Advance(20)
	case 0x5b: // LD DE,(nn)
		mc.Reg.SetDE(mc.read16(mc.fetch16()))
		mc.clk.Advance(20)
	case 0x6b: // LD HL,(nn)
		mc.Reg.SetHL(mc.read16(mc.fetch16()))
		mc.clk.Advance(20)
	case 0x7b: // LD SP,(nn)
		mc.SP = mc.read16(mc.fetch16())
		mc.clk.Advance(20)

	case 0x44, 0x4c, 0x54, 0x5c, 0x64, 0x6c, 0x74, 0x7c: // NEG
		mc.neg()
		mc.clk.Advance(8)

	case 0x45, 0x55, 0x5d, 0x65, 0x6d, 0x75, 0x7d: // RETN
		mc.IFF1 = mc.IFF2
		mc.PC = mc.pop16()
		mc.clk.Advance(14)
	case 0x4d: // RETI
		mc.IFF1 = mc.IFF2
		mc.PC = mc.pop16()
		mc.clk.Advance(14)

	case 0x46, 0x4e, 0x66, 0x6e: // IM 0
		mc.IM = 0
		mc.clk.Advance(8)
	case 0x56, 0x76: // IM 1
		mc.IM = 1
		mc.clk.Advance(8)
	case 0x5e, 0x7e: // IM 2
		mc.IM = 2
		mc.clk.Advance(8)

	case 0x47: // LD I,A
		mc.I = mc.Reg.A
		mc.clk.Advance(9)
	case 0x4f: // LD R,A
		mc.Refresh.Set(mc.Reg.A)
		mc.clk.Advance(9)
	case 0x57: // LD A,I
		mc.Reg.A = mc.I
		f := mc.Reg.F&registers.FlagC | sz35(mc.Reg.A)
		if mc.IFF2 {
			f |= registers.FlagP
		}
		mc.Reg.F = f
		mc.clk.Advance(9)
	case 0x5f: // LD A,R
		mc.Reg.A = mc.Refresh.R()
		f := mc.Reg.F&registers.FlagC | sz35(mc.Reg.A)
		if mc.IFF2 {
			f |= registers.FlagP
		}
		mc.Reg.F = f
		mc.clk.Advance(9)

	case 0x67: // RRD
		v := mc.mem.Read(mc.Reg.HL())
		mc.mem.Write(mc.Reg.HL(), v>>4|mc.Reg.A<<4)
		mc.Reg.A = mc.Reg.A&0xf0 | v&0x0f
		mc.Reg.F = mc.Reg.F&registers.FlagC | szp35(mc.Reg.A)
		mc.clk.Advance(18)
	case 0x6f: // RLD
		v := mc.mem.Read(mc.Reg.HL())
		mc.mem.Write(mc.Reg.HL(), v<<4|mc.Reg.A&0x0f)
		mc.Reg.A = mc.Reg.A&0xf0 | v>>4
		mc.Reg.F = mc.Reg.F&registers.FlagC | szp35(mc.Reg.A)
		mc.clk.Advance(18)

	case 0xa0: // LDI
		mc.ldi()
		mc.clk.Advance(16)
	case 0xa8: // LDD
		mc.ldd()
		mc.clk.Advance(16)
	case 0xb0: // LDIR
		mc.ldi()
		if mc.Reg.BC() != 0 {
			mc.PC -= 2
			mc.clk.Advance(21)
		} else {
			mc.clk.Advance(16)
		}
	case 0xb8: // LDDR
		mc.ldd()
		if mc.Reg.BC() != 0 {
			mc.PC -= 2
			mc.clk.Advance(21)
		} else {
			mc.clk.Advance(16)
		}

	case 0xa1: // CPI
		mc.cpi()
		mc.clk.Advance(16)
	case 0xa9: // CPD
		mc.cpd()
		mc.clk.Advance(16)
	case 0xb1: // CPIR
		mc.cpi()
		if mc.Reg.BC() != 0 && mc.Reg.F&registers.FlagZ == 0 {
			mc.PC -= 2
			mc.clk.Advance(21)
		} else {
			mc.clk.Advance(16)
		}
	case 0xb9: // CPDR
		mc.cpd()
		if mc.Reg.BC() != 0 && mc.Reg.F&registers.FlagZ == 0 {
			mc.PC -= 2
			mc.clk.Advance(21)
		} else {
			mc.clk.Advance(16)
		}

	case 0xa2: // INI
		mc.ioBlock(true, 1)
		mc.clk.Advance(16)
	case 0xaa: // IND
		mc.ioBlock(true, -1)
		mc.clk.Advance(16)
	case 0xb2: // INIR
		mc.ioBlock(true, 1)
		if mc.Reg.B != 0 {
			mc.PC -= 2
			mc.clk.Advance(21)
		} else {
			mc.clk.Advance(16)
		}
	case 0xba: // INDR
		mc.ioBlock(true, -1)
		if mc.Reg.B != 0 {
			mc.PC -= 2
			mc.clk.Advance(21)
		} else {
			mc.clk.Advance(16)
		}

	case 0xa3: // OUTI
		mc.ioBlock(false, 1)
		mc.clk.Advance(16)
	case 0xab: // OUTD
		mc.ioBlock(false, -1)
		mc.clk.Advance(16)
	case 0xb3: // OTIR
		mc.ioBlock(false, 1)
		if mc.Reg.B != 0 {
			mc.PC -= 2
			mc.clk.Advance(21)
		} else {
			mc.clk.Advance(16)
		}
	case 0xbb: // OTDR
		mc.ioBlock(false, -1)
		if mc.Reg.B != 0 {
			mc.PC -= 2
			mc.clk.Advance(21)
		} else {
			mc.clk.Advance(16)
		}

	default:
		// undefined ED opcodes behave as two NOPs
		mc.clk.Advance(8)
	}
}

func (mc *CPU) ldi() {
	v := mc.mem.Read(mc.Reg.HL())
	mc.mem.Write(mc.Reg.DE(), v)
	mc.Reg.SetHL(mc.Reg.HL() + 1)
	mc.Reg.SetDE(mc.Reg.DE() + 1)
	mc.Reg.SetBC(mc.Reg.BC() - 1)
	mc.ldBlockFlags(v)
}

func (mc *CPU) ldd() {
	v := mc.mem.Read(mc.Reg.HL())
	mc.mem.Write(mc.Reg.DE(), v)
	mc.Reg.SetHL(mc.Reg.HL() - 1)
	mc.Reg.SetDE(mc.Reg.DE() - 1)
	mc.Reg.SetBC(mc.Reg.BC() - 1)
	mc.ldBlockFlags(v)
}

func (mc *CPU) cpi() {
	v := mc.mem.Read(mc.Reg.HL())
	mc.Reg.SetHL(mc.Reg.HL() + 1)
	mc.Reg.SetBC(mc.Reg.BC() - 1)
	mc.cpBlockFlags(v)
}

func (mc *CPU) cpd() {
	v := mc.mem.Read(mc.Reg.HL())
	mc.Reg.SetHL(mc.Reg.HL() - 1)
	mc.Reg.SetBC(mc.Reg.BC() - 1)
	mc.cpBlockFlags(v)
}

// ioBlock implements the INI/IND/OUTI/OUTD group. the flag treatment here
// is the simple one: Z from the decremented B, N set. note that the OUT
// forms decrement B before the port address goes out.
func (mc *CPU) ioBlock(in bool, dir int) {
	if in {
		v := mc.ports.In(mc.Reg.BC())
		mc.mem.Write(mc.Reg.HL(), v)
		mc.Reg.B--
	} else {
		v := mc.mem.Read(mc.Reg.HL())
		mc.Reg.B--
		mc.ports.Out(mc.Reg.BC(), v)
	}

	mc.Reg.SetHL(uint16(int32(mc.Reg.HL()) + int32(dir)))
	mc.Reg.F = sz35(mc.Reg.B) | registers.FlagN
}
