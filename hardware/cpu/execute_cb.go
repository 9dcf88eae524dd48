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

// rotOp dispatches an encoded rotate/shift operation: RLC RRC RL RR SLA
// SRA SLL SRL.
func (mc *CPU) rotOp(i uint8, v uint8) uint8 {
	switch i {
	case 0:
		return mc.rlc(v)
	case 1:
		return mc.rrc(v)
	case 2:
		return mc.rl(v)
	case 3:
		return mc.rr(v)
	case 4:
		return mc.sla(v)
	case 5:
		return mc.sra(v)
	case 6:
		return mc.sll(v)
	}
	return mc.srl(v)
}

func (mc *CPU) executeCB() {
	op := mc.fetch()
	mc.Refresh.Inc(1)

	z := op & 0x07
	y := (op >> 3) & 0x07

	switch op >> 6 {
	case 0: // rotate/shift
		mc.setR(z, mc.rotOp(y, mc.getR(z)))
		if z == idxHL {
			mc.clk.Advance(15)
		} else {
			mc.clk.Advance(8)
		}
	case 1: // BIT y,r
		mc.bit(y, mc.getR(z))
		if z == idxHL {
			mc.clk.Advance(12)
		} else {
			mc.clk.Advance(8)
		}
	case 2: // RES y,r
		mc.setR(z, mc.getR(z)&^(1<<y))
		if z == idxHL {
			mc.clk.Advance(15)
		} else {
			mc.clk.Advance(8)
		}
	case 3: // SET y,r
		mc.setR(z, mc.getR(z)|1<<y)
		if z == idxHL {
			mc.clk.Advance(15)
		} else {
			mc.clk.Advance(8)
		}
	}
}
