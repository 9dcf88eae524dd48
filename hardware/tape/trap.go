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
	"github.com/jetsetilly/gopherzx/hardware/cpu/registers"
)

// addresses in the 48K ROM used by the loader trap.
const (
	// the LD-BYTES routine. the trap replaces the whole routine
	trapPC = 0x056b

	// successful exit: carry set, everything loaded
	trapExitOK = 0x05df

	// error exit: the routine's own error path
	trapExitErr = 0x05e2
)

// pulse classification thresholds, in T-states.
const (
	// anything at or below this is a sync pulse, ending the pilot tone
	syncThreshold = 770

	// a bit's first pulse above this is a one
	bitThreshold = 1240
)

// ROMTrap emulates the 48K ROM LD-BYTES routine against the raw pulse
// stream, bypassing the pulse-by-pulse loader loop. Correctness is defined
// by the state the real routine leaves behind: registers, flags and
// memory.
//
// The caller has established that the tape is playing, traps are enabled
// and PC is at the routine's entry.
func (tp *Tape) ROMTrap(mc *cpu.CPU, mem cpu.Memory) {
	// pilot skip: consume pulses until a sync pulse, then the second
	// sync. block sentinels are larger than any pulse so gaps between
	// blocks are skipped here too
	for {
		d, ok := tp.nextPulse()
		if !ok {
			tp.trapError(mc)
			return
		}
		if d <= syncThreshold {
			break
		}
	}
	if _, ok := tp.nextPulse(); !ok {
		tp.trapError(mc)
		return
	}

	// flag byte, payload, CRC byte
	n := int(mc.Reg.DE()) + 2

	ix := mc.IX
	de := mc.Reg.DE()

	for i := 0; i < n; i++ {
		var acc uint8
		for mask := uint8(0x80); mask != 0; mask >>= 1 {
			d1, ok := tp.nextPulse()
			if !ok || d1 == EndOfTape {
				tp.trapError(mc)
				return
			}
			if _, ok := tp.nextPulse(); !ok {
				tp.trapError(mc)
				return
			}
			if d1 > bitThreshold {
				acc |= mask
			}
		}

		mc.Reg.L = acc

		// first byte is the flag, last is the CRC; the rest is payload
		if i > 0 && i < n-1 {
			mem.Write(ix, acc)
			ix++
			de--
		}
	}

	mc.IX = ix
	mc.Reg.SetDE(de)
	mc.Reg.SetBC(0xb001)
	mc.Reg.H = 0
	mc.Reg.F |= registers.FlagC
	mc.PC = trapExitOK

	tp.resync()
}

// trapError leaves the guest on the ROM's error exit with the tape
// stopped, as a real end-of-tape mid-load would.
func (tp *Tape) trapError(mc *cpu.CPU) {
	mc.PC = trapExitErr
	mc.Reg.F &^= registers.FlagC
	tp.Stop()
}

// resync re-schedules the next playback edge after the trap has consumed
// pulses behind the playback state's back.
func (tp *Tape) resync() {
	if !tp.playing {
		return
	}

	d, ok := tp.nextPlayablePulse()
	if !ok {
		tp.Stop()
		return
	}
	tp.edgeChange = tp.clk.Now() + uint64(d)
}
