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
	"fmt"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/hardware/cpu"
	"github.com/jetsetilly/gopherzx/hardware/memory"
)

const spHeaderLen = 38

// loadSP restores an SP snapshot: a 38-byte header and a memory payload
// whose length and load address the header declares. The declared length
// must agree with the file size.
func loadSP(data []uint8, mc *cpu.CPU, mem *memory.Memory) (Result, error) {
	if len(data) < spHeaderLen {
		return Result{}, curated.Errorf(InvalidFormat, "sp: truncated header")
	}

	length := int(read16(data, 2))
	start := read16(data, 4)

	if spHeaderLen+length != len(data) {
		return Result{}, curated.Errorf(InvalidFormat, fmt.Sprintf("sp: declared payload of %d bytes disagrees with file size", length))
	}
	if int(start)+length > 0x10000 {
		return Result{}, curated.Errorf(InvalidFormat, "sp: payload runs past the end of memory")
	}

	mc.Reset()
	mem.Reset()

	mc.Reg.SetBC(read16(data, 6))
	mc.Reg.SetDE(read16(data, 8))
	mc.Reg.SetHL(read16(data, 10))
	mc.Reg.F = data[12]
	mc.Reg.A = data[13]
	mc.IX = read16(data, 14)
	mc.IY = read16(data, 16)
	mc.Alt.SetBC(read16(data, 18))
	mc.Alt.SetDE(read16(data, 20))
	mc.Alt.SetHL(read16(data, 22))
	mc.Alt.F = data[24]
	mc.Alt.A = data[25]
	mc.Refresh.Set(data[26])
	mc.I = data[27]
	mc.SP = read16(data, 28)
	mc.PC = read16(data, 30)

	res := Result{Border: data[32] & 0x07}

	status := read16(data, 34)
	mc.IFF1 = status&0x0001 != 0
	mc.IFF2 = status&0x0004 != 0
	if status&0x0002 != 0 {
		mc.IM = 2
	} else {
		mc.IM = 1
	}

	// SP is a 48K format
	mem.P7FFD = 0x30
	for i := 0; i < length; i++ {
		mem.Write(start+uint16(i), data[spHeaderLen+i])
	}

	return res, nil
}
