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

const z80V1HeaderLen = 30

// loadZ80 restores a Z80 snapshot, any of the three header generations.
func loadZ80(data []uint8, mc *cpu.CPU, mem *memory.Memory) (Result, error) {
	if len(data) < z80V1HeaderLen {
		return Result{}, curated.Errorf(InvalidFormat, "z80: truncated header")
	}

	mc.Reset()
	mem.Reset()

	mc.Reg.A = data[0]
	mc.Reg.F = data[1]
	mc.Reg.SetBC(read16(data, 2))
	mc.Reg.SetHL(read16(data, 4))
	mc.SP = read16(data, 8)
	mc.I = data[10]

	flags1 := data[12]
	if flags1 == 0xff {
		// a very old saver wrote 0xff here; the convention is to read
		// it as 0x01
		flags1 = 0x01
	}

	mc.Refresh.RLow = data[11] & 0x7f
	if flags1&0x01 != 0 {
		mc.Refresh.R7 = 0x80
	} else {
		mc.Refresh.R7 = 0
	}

	mc.Reg.SetDE(read16(data, 13))
	mc.Alt.SetBC(read16(data, 15))
	mc.Alt.SetDE(read16(data, 17))
	mc.Alt.SetHL(read16(data, 19))
	mc.Alt.A = data[21]
	mc.Alt.F = data[22]
	mc.IY = read16(data, 23)
	mc.IX = read16(data, 25)
	mc.IFF1 = data[27] != 0
	mc.IFF2 = data[28] != 0
	mc.IM = data[29] & 0x03

	res := Result{Border: flags1 >> 1 & 0x07}

	pc := read16(data, 6)
	if pc != 0 {
		// version 1: a single 48K memory dump, compressed when flags1
		// bit 5 says so
		mc.PC = pc
		mem.P7FFD = 0x30

		body := data[z80V1HeaderLen:]
		if flags1&0x20 != 0 {
			var err error
			body, err = unrle(body, 0xc000, true)
			if err != nil {
				return res, err
			}
		}
		if len(body) < 0xc000 {
			return res, curated.Errorf(InvalidFormat, fmt.Sprintf("z80: short memory image (%d bytes)", len(body)))
		}

		copy(mem.Page(5), body[0x0000:])
		copy(mem.Page(2), body[0x4000:])
		copy(mem.Page(0), body[0x8000:])
		return res, nil
	}

	// version 2 or 3: an extra header follows, then per-page records
	if len(data) < z80V1HeaderLen+2 {
		return res, curated.Errorf(InvalidFormat, "z80: truncated v2 header")
	}
	extraLen := int(read16(data, 30))
	extra := data[32:]
	if len(extra) < extraLen {
		return res, curated.Errorf(InvalidFormat, "z80: truncated v2 header")
	}

	mc.PC = read16(extra, 0)
	hwMode := extra[2]

	// hardware modes below 3 (v2) / 4 (v3) describe 48K machines
	is48 := hwMode < 3 || (extraLen != 23 && hwMode < 4)
	if is48 {
		mem.P7FFD = 0x30
	} else {
		mem.P7FFD = extra[3]
	}

	o := 32 + extraLen
	for o < len(data) {
		if o+3 > len(data) {
			return res, curated.Errorf(InvalidFormat, fmt.Sprintf("z80: truncated page record at offset %d", o))
		}
		clen := int(read16(data, o))
		pageNum := data[o+2]
		o += 3

		var body []uint8
		var err error
		if clen == 0xffff {
			// stored uncompressed
			if o+0x4000 > len(data) {
				return res, curated.Errorf(InvalidFormat, fmt.Sprintf("z80: truncated page at offset %d", o))
			}
			body = data[o : o+0x4000]
			o += 0x4000
		} else {
			if o+clen > len(data) {
				return res, curated.Errorf(InvalidFormat, fmt.Sprintf("z80: truncated page at offset %d", o))
			}
			body, err = unrle(data[o:o+clen], 0x4000, false)
			if err != nil {
				return res, err
			}
			o += clen
		}

		page, ok := z80PageTarget(pageNum, is48)
		if !ok {
			// ROM pages and the odd vendor extension are skipped
			continue
		}
		copy(mem.Page(page), body)
	}

	return res, nil
}

// z80PageTarget maps a Z80 page record number to a RAM page.
func z80PageTarget(pageNum uint8, is48 bool) (int, bool) {
	if is48 {
		switch pageNum {
		case 4:
			return 2, true
		case 5:
			return 0, true
		case 8:
			return 5, true
		}
		return 0, false
	}

	if pageNum >= 3 && pageNum <= 10 {
		return int(pageNum) - 3, true
	}
	return 0, false
}

// unrle expands the ED ED count value compression. Version 1 images end
// with the 00 ED ED 00 terminator; page records carry their length
// instead.
func unrle(data []uint8, max int, v1 bool) ([]uint8, error) {
	out := make([]uint8, 0, max)

	o := 0
	for o < len(data) && len(out) < max {
		if v1 && o+4 <= len(data) &&
			data[o] == 0x00 && data[o+1] == 0xed && data[o+2] == 0xed && data[o+3] == 0x00 {
			break
		}

		if o+4 <= len(data) && data[o] == 0xed && data[o+1] == 0xed {
			count := int(data[o+2])
			v := data[o+3]
			for i := 0; i < count; i++ {
				out = append(out, v)
			}
			o += 4
			continue
		}

		out = append(out, data[o])
		o++
	}

	if len(out) > max {
		return nil, curated.Errorf(InvalidFormat, "z80: compressed page expands past its page boundary")
	}

	return out, nil
}
