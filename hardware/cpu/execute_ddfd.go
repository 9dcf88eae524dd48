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

// getXR is getR with H and L replaced by the halves of the index register.
func (mc *CPU) getXR(i uint8, ix uint16) uint8 {
	switch i {
	case idxH:
		return uint8(ix >> 8)
	case idxL:
		return uint8(ix)
	}
	return mc.getR(i)
}

// setXR is setR with H and L replaced by the halves of the index register.
func (mc *CPU) setXR(i uint8, ix *uint16, v uint8) {
	switch i {
	case idxH:
		*ix = *ix&0x00ff | uint16(v)<<8
	case idxL:
		*ix = *ix&0xff00 | uint16(v)
	default:
		mc.setR(i, v)
	}
}

// executeIndex handles a DD or FD prefixed instruction. ix points at IX or
// IY accordingly.
func (mc *CPU) executeIndex(ix *uint16) {
	op := mc.fetch()
	mc.Refresh.Inc(1)

	// the regular quarters of the map, with the index substitutions
	if op >= 0x40 && op < 0x80 && op != 0x76 {
		src := op & 0x07
		dst := (op >> 3) & 0x07

		// when one operand is (ix+d) the other is the ordinary register
		// set, not the index halves
		switch {
		case src == idxHL:
			d := int8(mc.fetch())
			mc.setR(dst, mc.mem.Read(uint16(int32(*ix)+int32(d))))
			mc.clk.Advance(19)
		case dst == idxHL:
			d := int8(mc.fetch())
			mc.mem.Write(uint16(int32(*ix)+int32(d)), mc.getR(src))
			mc.clk.Advance(19)
		default:
			mc.setXR(dst, ix, mc.getXR(src, *ix))
			mc.clk.Advance(8)
		}
		return
	}

	if op >= 0x80 && op < 0xc0 {
		src := op & 0x07
		if src == idxHL {
			d := int8(mc.fetch())
			mc.alu((op>>3)&0x07, mc.mem.Read(uint16(int32(*ix)+int32(d))))
			mc.clk.Advance(19)
		} else {
			mc.alu((op>>3)&0x07, mc.getXR(src, *ix))
			mc.clk.Advance(8)
		}
		return
	}

	switch op {
	case 0x09: // ADD ix,BC
		*ix = mc.add16(*ix, mc.Reg.BC())
		mc.clk.Advance(15)
	case 0x19: // ADD ix,DE
		*ix = mc.add16(*ix, mc.Reg.DE())
		mc.clk.Advance(15)
	case 0x29: // ADD ix,ix
		*ix = mc.add16(*ix, *ix)
		mc.clk.Advance(15)
	case 0x39: // ADD ix,SP
		*ix = mc.add16(*ix, mc.SP)
		mc.clk.Advance(15)

	case 0x21: // LD ix,nn
		*ix = mc.fetch16()
		mc.clk.Advance(14)
	case 0x22: // LD (nn),ix
		mc.write16(mc.fetch16(), *ix)
		mc.clk.Advance(20)
	case 0x2a: // LD ix,(nn)
		*ix = mc.read16(mc.fetch16())
		mc.clk.Advance(20)
	case 0x23: // INC ix
		*ix++
		mc.clk.Advance(10)
	case 0x2b: // DEC ix
		*ix--
		mc.clk.Advance(10)

	case 0x24, 0x2c: // INC ixh/ixl
		i := (op >> 3) & 0x07
		mc.setXR(i, ix, mc.inc8(mc.getXR(i, *ix)))
		mc.clk.Advance(8)
	case 0x25, 0x2d: // DEC ixh/ixl
		i := (op >> 3) & 0x07
		mc.setXR(i, ix, mc.dec8(mc.getXR(i, *ix)))
		mc.clk.Advance(8)
	case 0x26, 0x2e: // LD ixh/ixl,n
		mc.setXR((op>>3)&0x07, ix, mc.fetch())
		mc.clk.Advance(11)

	case 0x34: // INC (ix+d)
		d := int8(mc.fetch())
		addr := uint16(int32(*ix) + int32(d))
		mc.mem.Write(addr, mc.inc8(mc.mem.Read(addr)))
		mc.clk.Advance(23)
	case 0x35: // DEC (ix+d)
		d := int8(mc.fetch())
		addr := uint16(int32(*ix) + int32(d))
		mc.mem.Write(addr, mc.dec8(mc.mem.Read(addr)))
		mc.clk.Advance(23)
	case 0x36: // LD (ix+d),n
		d := int8(mc.fetch())
		n := mc.fetch()
		mc.mem.Write(uint16(int32(*ix)+int32(d)), n)
		mc.clk.Advance(19)

	case 0xcb:
		mc.executeIndexCB(ix)

	case 0xe1: // POP ix
		*ix = mc.pop16()
		mc.clk.Advance(14)
	case 0xe5: // PUSH ix
		mc.push16(*ix)
		mc.clk.Advance(15)
	case 0xe3: // EX (SP),ix
		v := mc.read16(mc.SP)
		mc.write16(mc.SP, *ix)
		*ix = v
		mc.clk.Advance(23)
	case 0xe9: // JP (ix)
		mc.PC = *ix
		mc.clk.Advance(8)
	case 0xf9: // LD SP,ix
		mc.SP = *ix
		mc.clk.Advance(10)

	default:
		// a prefix before an opcode with no indexed meaning behaves as a
		// NOP followed by the unprefixed instruction
		mc.clk.Advance(4)
		mc.executeMain(op)
	}
}

// executeIndexCB handles the DDCB/FDCB double prefix. The displacement
// byte comes before the final opcode.
func (mc *CPU) executeIndexCB(ix *uint16) {
	d := int8(mc.fetch())
	op := mc.fetch()
	addr := uint16(int32(*ix) + int32(d))

	z := op & 0x07
	y := (op >> 3) & 0x07

	switch op >> 6 {
	case 0: // rotate/shift
		v := mc.rotOp(y, mc.mem.Read(addr))
		mc.mem.Write(addr, v)
		if z != idxHL {
			// the undocumented forms also copy the result to a register
			mc.setR(z, v)
		}
		mc.clk.Advance(23)
	case 1: // BIT
		mc.bit(y, mc.mem.Read(addr))
		mc.clk.Advance(20)
	case 2: // RES
		v := mc.mem.Read(addr) &^ (1 << y)
		mc.mem.Write(addr, v)
		if z != idxHL {
			mc.setR(z, v)
		}
		mc.clk.Advance(23)
	case 3: // SET
		v := mc.mem.Read(addr) | 1<<y
		mc.mem.Write(addr, v)
		if z != idxHL {
			mc.setR(z, v)
		}
		mc.clk.Advance(23)
	}
}
