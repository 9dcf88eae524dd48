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

package image

import (
	"fmt"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/hardware/disk"
)

const fdiSignature = "FDI"

// attachFDI parses an FDI image: a 14-byte file header, a table of
// per-track headers and per-sector descriptors, and the sector data. FDI
// preserves irregular CHRN values, so copy-protected disks survive the
// trip through the track store.
func attachFDI(d *disk.Drive, data []uint8) error {
	if len(data) < 14 {
		return curated.Errorf(InvalidFormat, "fdi: truncated header")
	}

	cyls := read16(data, 4)
	sides := read16(data, 6)
	dataOffset := read16(data, 10)
	extra := read16(data, 12)

	if cyls == 0 || sides == 0 || cyls > 86 || sides > 2 {
		return curated.Errorf(InvalidFormat, fmt.Sprintf("fdi: implausible geometry %dx%d", cyls, sides))
	}

	d.Allocate(cyls, sides)

	o := 14 + extra
	for cyl := 0; cyl < cyls; cyl++ {
		for side := 0; side < sides; side++ {
			if o+7 > len(data) {
				return curated.Errorf(InvalidFormat, fmt.Sprintf("fdi: truncated track header at offset %d", o))
			}

			trackOffset := read32(data, o)
			nsec := int(data[o+6])
			o += 7

			sectors := make([]disk.Sector, 0, nsec)
			for s := 0; s < nsec; s++ {
				if o+7 > len(data) {
					return curated.Errorf(InvalidFormat, fmt.Sprintf("fdi: truncated sector descriptor at offset %d", o))
				}

				c, h, r, n := data[o], data[o+1], data[o+2], data[o+3]
				flags := data[o+4]
				secOffset := read16(data, o+5)
				o += 7

				sec := disk.Sector{C: c, H: h, R: r, N: n}

				// a zero flags byte describes an ID without a data
				// field; the CRC-ok bit for the sector size is clear on
				// sectors imaged with a bad checksum
				if flags != 0 {
					do := dataOffset + trackOffset + secOffset
					l := 128 << (n & 3)
					if do+l > len(data) {
						return curated.Errorf(InvalidFormat, fmt.Sprintf("fdi: sector data out of range at offset %d", do))
					}
					sec.Data = data[do : do+l]
					sec.BadCRC = flags&(1<<(n&3)) == 0
				}

				sectors = append(sectors, sec)
			}

			d.FormatTrack(cyl, side, sectors)
		}
	}

	d.SnapType = "fdi"
	return nil
}
