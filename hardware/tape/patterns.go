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

package tape

import (
	"github.com/jetsetilly/gopherzx/hardware/cpu"
)

// patternWindow is how many bytes at PC are considered for a match.
const patternWindow = 16

// edgePattern describes one known edge-polling loader loop. want holds
// the expected bytes; positions where mask is zero are wildcards (operand
// bytes that vary between copies of the loader).
type edgePattern struct {
	name string
	mask []uint8
	want []uint8

	// the ear bit the loop tests after its shifting, 0x20 or 0x40
	bitMask uint8

	// T-states per loop iteration
	cycles int

	// counting direction of B and the value at which the loop times out
	bStep int
	bExit uint8
}

// edgePatterns is the table of recognised edge-polling loops. The first
// entry is the 48K ROM's LD-SAMPLE loop; the others are the common
// custom-loader variants of it.
var edgePatterns = []edgePattern{
	{
		// INC B; RET Z; LD A,0x7f; IN A,(0xfe); RRA; RET C; XOR C;
		// AND 0x20; JR Z,-13
		name:    "rom",
		mask:    []uint8{0xff, 0xff, 0xff, 0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		want:    []uint8{0x04, 0xc8, 0x3e, 0x7f, 0xdb, 0xfe, 0x1f, 0xd8, 0xa9, 0xe6, 0x20, 0x28, 0xf3},
		bitMask: 0x20,
		cycles:  59,
		bStep:   1,
		bExit:   0xff,
	},
	{
		// the ROM loop without the break-key test. Popeye 2 and Rana
		// Rama carry this shape with differing LD A operands
		name:    "popeye2",
		mask:    []uint8{0xff, 0xff, 0xff, 0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		want:    []uint8{0x04, 0xc8, 0x3e, 0x7f, 0xdb, 0xfe, 0x1f, 0xa9, 0xe6, 0x20, 0x28, 0xf4},
		bitMask: 0x20,
		cycles:  54,
		bStep:   1,
		bExit:   0xff,
	},
	{
		// INC B; RET Z; IN A,(0xfe); XOR C; AND 0x40; JR Z,-8
		name:    "bleep",
		mask:    []uint8{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0xff, 0xff},
		want:    []uint8{0x04, 0xc8, 0xdb, 0xfe, 0xa9, 0xe6, 0x40, 0x28, 0xf8},
		bitMask: 0x40,
		cycles:  43,
		bStep:   1,
		bExit:   0xff,
	},
	{
		// DEC B; RET Z; IN A,(0xfe); XOR C; AND 0x40; JR Z,-8
		name:    "lode runner",
		mask:    []uint8{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0xff, 0xff},
		want:    []uint8{0x05, 0xc8, 0xdb, 0xfe, 0xa9, 0xe6, 0x40, 0x28, 0xf8},
		bitMask: 0x40,
		cycles:  43,
		bStep:   -1,
		bExit:   0x01,
	},
	{
		// LD A,R variant used by ZeroMusic and Donkey Kong: INC B;
		// JR Z,+nn; IN A,(0xfe); RRA; XOR C; AND 0x20; JR Z,-11
		name:    "zeromusic",
		mask:    []uint8{0xff, 0xff, 0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		want:    []uint8{0x04, 0x28, 0x00, 0xdb, 0xfe, 0x1f, 0xa9, 0xe6, 0x20, 0x28, 0xf5},
		bitMask: 0x20,
		cycles:  52,
		bStep:   1,
		bExit:   0xff,
	},
}

// Accelerate is called after every instruction while the tape is playing
// and sound is off. It recognises the tight loops that loaders spend
// nearly all their time in and replays them wholesale against the pulse
// stream, advancing the clock without executing the loop body.
func (tp *Tape) Accelerate(mc *cpu.CPU, mem cpu.Memory) {
	var window [patternWindow]uint8
	for i := range window {
		window[i] = mem.Read(mc.PC + uint16(i))
	}

	// delay-loop family

	// DEC A; JR NZ,-3
	if window[0] == 0x3d && window[1] == 0x20 && window[2] == 0xfd {
		if mc.Reg.A > 1 {
			tp.clk.Advance(int(mc.Reg.A-1) * 16)
			mc.Reg.A = 1
		}
		return
	}

	// DJNZ $
	if window[0] == 0x10 && window[1] == 0xfe {
		if mc.Reg.B > 1 {
			tp.clk.Advance(int(mc.Reg.B-1) * 13)
			mc.Reg.B = 1
		}
		return
	}

	// DEC A; JP NZ,$ (jump back to the DEC itself)
	if window[0] == 0x3d && window[1] == 0xc2 {
		target := uint16(window[2]) | uint16(window[3])<<8
		if target == mc.PC {
			if mc.Reg.A > 1 {
				tp.clk.Advance(int(mc.Reg.A-1) * 14)
				mc.Reg.A = 1
			}
			return
		}
	}

	// edge-polling family
	for i := range edgePatterns {
		p := &edgePatterns[i]
		if !matchPattern(p, window[:]) {
			continue
		}
		tp.pollEdges(mc, p)
		return
	}
}

func matchPattern(p *edgePattern, window []uint8) bool {
	for i := range p.want {
		if window[i]&p.mask[i] != p.want[i]&p.mask[i] {
			return false
		}
	}
	return true
}

// pollEdges runs the matched loop inside the accelerator: advance the
// clock an iteration at a time until the loop would exit, either on a
// signal edge or on the B register timing out.
func (tp *Tape) pollEdges(mc *cpu.CPU, p *edgePattern) {
	for {
		if mc.Reg.B == p.bExit {
			return
		}

		sample := tp.TapeBit()
		if p.bitMask == 0x20 {
			// the loop samples the port through an RRA
			sample >>= 1
		}
		if (sample^mc.Reg.C)&p.bitMask != 0 {
			return
		}

		if !tp.playing {
			// no more edges are coming; let the loop time out for real
			return
		}

		mc.Reg.B = uint8(int(mc.Reg.B) + p.bStep)
		tp.clk.Advance(p.cycles)
		tp.clk.CrossFrame()
	}
}
