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
	"fmt"

	"github.com/jetsetilly/gopherzx/curated"
)

const cswSignature = "Compressed Square Wave\x1a"

const cswHeaderLen = 0x20

// parseCSW decodes a CSW v1 file: RLE-compressed sample runs at a fixed
// sample rate, each run being one pulse.
func (tp *Tape) parseCSW(data []uint8) error {
	if len(data) < cswHeaderLen {
		return curated.Errorf(InvalidFormat, "csw: truncated header")
	}

	sampleRate := uint32(data[0x19]) | uint32(data[0x1a])<<8
	if sampleRate == 0 {
		return curated.Errorf(InvalidFormat, "csw: zero sample rate")
	}

	if data[0x1b] != 1 {
		return curated.Errorf(InvalidFormat, fmt.Sprintf("csw: unsupported compression type %d", data[0x1b]))
	}

	// initial signal polarity
	if data[0x1c]&0x01 != 0 {
		tp.bit = earBit
	} else {
		tp.bit = 0
	}

	tPerSample := uint32(Z80ClockHz) / sampleRate

	o := cswHeaderLen
	for o < len(data) {
		run := uint32(data[o])
		o++
		if run == 0 {
			// escape: 32-bit run length follows
			if o+4 > len(data) {
				return curated.Errorf(InvalidFormat, fmt.Sprintf("csw: truncated escape at offset %d", o))
			}
			run = uint32(data[o]) | uint32(data[o+1])<<8 | uint32(data[o+2])<<16 | uint32(data[o+3])<<24
			o += 4
		}
		tp.Pulses.Append(run * tPerSample)
	}

	// synthetic trailing pause
	tp.Pulses.Append(Z80ClockHz / 10)
	tp.Pulses.CloseBlock("csw recording", nil)

	return nil
}
