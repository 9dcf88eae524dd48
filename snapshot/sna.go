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

package snapshot

import (
	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/hardware/cpu"
	"github.com/jetsetilly/gopherzx/hardware/memory"
)

const snaHeaderLen = 27

// loadSNA restores an SNA snapshot. The 48K variant takes PC from the
// restored stack; the 128K variants carry it in the trailer.
func loadSNA(data []uint8, mc *cpu.CPU, mem *memory.Memory) (Result, error) {
	mc.Reset()
	mem.Reset()

	mc.I = data[0]
	mc.Alt.SetHL(read16(data, 1))
	mc.Alt.SetDE(read16(data, 3))
	mc.Alt.SetBC(read16(data, 5))
	mc.Alt.F = data[7]
	mc.Alt.A = data[8]
	mc.Reg.SetHL(read16(data, 9))
	mc.Reg.SetDE(read16(data, 11))
	mc.Reg.SetBC(read16(data, 13))
	mc.IY = read16(data, 15)
	mc.IX = read16(data, 17)
	mc.IFF2 = data[19]&0x04 != 0
	mc.IFF1 = mc.IFF2
	mc.Refresh.Set(data[20])
	mc.Reg.F = data[21]
	mc.Reg.A = data[22]
	mc.SP = read16(data, 23)
	mc.IM = data[25] & 0x03

	res := Result{Border: data[26] & 0x07}

	if len(data) == snaLen48 {
		// 48K memory map: pages 5, 2, 0
		copy(mem.Page(5), data[snaHeaderLen:])
		copy(mem.Page(2), data[snaHeaderLen+0x4000:])
		copy(mem.Page(0), data[snaHeaderLen+0x8000:])
		mem.P7FFD = 0x30 // 48K ROM, lock

		// PC is popped from the restored stack
		mc.PC = uint16(mem.Read(mc.SP)) | uint16(mem.Read(mc.SP+1))<<8
		mc.SP += 2

		return res, nil
	}

	// 128K: banks 5 and 2, then the bank at 0xc000, then the trailer,
	// then the remaining banks in ascending order
	o := snaHeaderLen
	copy(mem.Page(5), data[o:])
	o += 0x4000
	copy(mem.Page(2), data[o:])
	o += 0x4000

	trailer := o + 0x4000
	p7ffd := data[trailer+2]
	current := int(p7ffd & 0x07)

	copy(mem.Page(current), data[o:])
	o = trailer

	mc.PC = read16(data, o)
	mem.P7FFD = p7ffd
	res.TRDOS = data[o+3] != 0
	o += 4

	for page := 0; page < 8; page++ {
		if page == 5 || page == 2 || page == current {
			continue
		}
		if o+0x4000 > len(data) {
			return res, curated.Errorf(InvalidFormat, "sna: truncated 128K page data")
		}
		copy(mem.Page(page), data[o:])
		o += 0x4000
	}

	return res, nil
}
