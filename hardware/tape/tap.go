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
	"strings"

	"github.com/jetsetilly/gopherzx/curated"
)

// parseTAP decodes a TAP file: a bare concatenation of blocks, each a
// 16-bit little endian length followed by that many bytes.
func (tp *Tape) parseTAP(data []uint8) error {
	o := 0
	for o < len(data) {
		if o+2 > len(data) {
			return curated.Errorf(InvalidFormat, fmt.Sprintf("tap: truncated length field at offset %d", o))
		}
		l := int(data[o]) | int(data[o+1])<<8
		o += 2

		if o+l > len(data) {
			return curated.Errorf(InvalidFormat, fmt.Sprintf("tap: truncated block at offset %d", o))
		}

		block := data[o : o+l]
		o += l

		tp.Pulses.makeROMBlock(block, romPauseMs)
		tp.Pulses.CloseBlock(tapDescription(block), block)
	}

	return nil
}

// WriteTAP re-encodes the byte-oriented blocks of the pulse store as a TAP
// file. A tape parsed from a TAP re-encodes byte-identically.
func (tp *Tape) WriteTAP() []uint8 {
	var out []uint8
	for _, b := range tp.Pulses.Blocks() {
		if b.Data == nil {
			continue
		}
		out = append(out, uint8(len(b.Data)), uint8(len(b.Data)>>8))
		out = append(out, b.Data...)
	}
	return out
}

// tapDescription names a block for the host UI using the ROM header
// layout when present.
func tapDescription(block []uint8) string {
	if len(block) == 19 && block[0] == 0x00 {
		name := strings.TrimRight(string(block[2:12]), " ")
		switch block[1] {
		case 0:
			return fmt.Sprintf("Program: %s", name)
		case 1:
			return fmt.Sprintf("Number array: %s", name)
		case 2:
			return fmt.Sprintf("Character array: %s", name)
		case 3:
			return fmt.Sprintf("Bytes: %s", name)
		}
	}
	if len(block) > 0 && block[0] == 0xff {
		return fmt.Sprintf("data block (%d bytes)", len(block))
	}
	return fmt.Sprintf("block (%d bytes)", len(block))
}
