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

package disk

import (
	"github.com/jetsetilly/gopherzx/hardware/cpu"
	"github.com/jetsetilly/gopherzx/hardware/memory"
)

// The five TR-DOS ROM traps. Each is gated on PC, on a verification byte
// in the ROM image (so a patched or non-standard TR-DOS never misfires),
// and for the transfer traps on the controller state.
//
// T1 and T2 short out delay subroutines. T3 forces an exit from a polling
// loop. T4 and T5 replace the INI/OUTI transfer loops with a bulk copy
// between the track store and guest memory.
const (
	trapDelay1PC = 0x3dfd
	trapDelay2PC = 0x3ea0
	trapPollPC   = 0x3e01
	trapReadPC   = 0x3fec
	trapWritePC  = 0x3fd1
)

// inTransfer reports whether the controller is in the given transfer
// state, directly or parked in Wait on the way to it.
func (wd *WD1793) inTransfer(s State) bool {
	return wd.state == s || (wd.state == Wait && wd.state2 == s)
}

// Trap checks the guest PC against the five TR-DOS ROM traps and
// performs the trapped operation. Called after every instruction while
// the TR-DOS ROM is paged in and disk traps are enabled.
func (wd *WD1793) Trap(mc *cpu.CPU, mem *memory.Memory) {
	switch mc.PC {
	case trapDelay1PC:
		if mem.ROMRead(memory.ROMTRDOS, trapDelay1PC) != 0x3e {
			return
		}
		mc.PC = mc.Pop()
		mc.Reg.A = 0
		mc.Reg.C = 0

	case trapDelay2PC:
		if mem.ROMRead(memory.ROMTRDOS, trapDelay2PC) != 0x06 {
			return
		}
		mc.PC = mc.Pop()
		mc.Reg.A = 0
		mc.Reg.B = 0

	case trapPollPC:
		if mem.ROMRead(memory.ROMTRDOS, trapPollPC) != 0x0d {
			return
		}
		mc.Reg.A = 1
		mc.Reg.C = 1

	case trapReadPC:
		if mem.ROMRead(memory.ROMTRDOS, trapReadPC+1) != 0xa2 {
			return
		}
		if !wd.inTransfer(Read) {
			return
		}
		wd.bulkRead(mc, mem)
		mc.PC += 2

	case trapWritePC:
		if mem.ROMRead(memory.ROMTRDOS, trapWritePC+1) != 0xa3 {
			return
		}
		if !wd.inTransfer(Write) || wd.rqs&rqsDRQ == 0 || wd.rwlen <= 1 {
			return
		}
		wd.bulkWrite(mc, mem)
		mc.PC += 2
	}
}

// bulkRead replaces the INI loop at the heart of the TR-DOS sector read:
// the pending data register byte and then the rest of the transfer go
// straight into guest memory at HL.
func (wd *WD1793) bulkRead(mc *cpu.CPU, mem *memory.Memory) {
	hl := mc.Reg.HL()

	// the byte already latched in the data register goes first, keeping
	// the sequence the guest would have seen
	if wd.rqs&rqsDRQ != 0 {
		mem.Write(hl, wd.data)
		hl++
		mc.Reg.B--
		wd.rqs &^= rqsDRQ
		wd.status &^= stDRQ
	}

	for wd.rwlen > 0 {
		t := wd.currentTrack()
		mem.Write(hl, t.Data[wd.rwptr])
		hl++
		mc.Reg.B--
		wd.rwptr++
		wd.rwlen--
	}

	mc.Reg.SetHL(hl)
	wd.state = Read
	wd.finishRead()
}

// bulkWrite replaces the OUTI loop of the TR-DOS sector write.
func (wd *WD1793) bulkWrite(mc *cpu.CPU, mem *memory.Memory) {
	hl := mc.Reg.HL()
	t := wd.currentTrack()

	for wd.rwlen > 0 {
		t.Data[wd.rwptr] = mem.Read(hl)
		hl++
		mc.Reg.B--
		wd.rwptr++
		wd.rwlen--
	}

	l := 128 << (t.Data[wd.idamPos+4] & 3)
	t.RewriteDataCRC(wd.damPos, l)
	wd.SelectedDrive().OpType |= OpSectorDirty

	mc.Reg.SetHL(hl)
	wd.rqs &^= rqsDRQ
	wd.status &^= stDRQ
	wd.state = Write
	wd.completed()
}
