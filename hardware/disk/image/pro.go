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

// attachPRO parses a PRO image: per-track records each carrying its own
// sector header array, ahead of the sector data for that track.
func attachPRO(d *disk.Drive, data []uint8) error {
	if len(data) < 6 {
		return curated.Errorf(InvalidFormat, "pro: truncated header")
	}

	cyls := int(data[2])
	sides := int(data[3])
	headerLen := read16(data, 4)

	if cyls == 0 || cyls > 86 || sides == 0 || sides > 2 {
		return curated.Errorf(InvalidFormat, fmt.Sprintf("pro: implausible geometry %dx%d", cyls, sides))
	}

	d.Allocate(cyls, sides)

	o := 6 + headerLen
	for cyl := 0; cyl < cyls; cyl++ {
		for side := 0; side < sides; side++ {
			if o+1 > len(data) {
				return curated.Errorf(InvalidFormat, fmt.Sprintf("pro: truncated track record at offset %d", o))
			}

			nsec := int(data[o])
			o++

			headers := o
			o += nsec * 5
			if o > len(data) {
				return curated.Errorf(InvalidFormat, fmt.Sprintf("pro: truncated sector headers at offset %d", headers))
			}

			sectors := make([]disk.Sector, 0, nsec)
			for s := 0; s < nsec; s++ {
				ho := headers + s*5
				c, h, r, n := data[ho], data[ho+1], data[ho+2], data[ho+3]
				flags := data[ho+4]

				sec := disk.Sector{C: c, H: h, R: r, N: n, BadCRC: flags&0x01 != 0}

				l := sec.SectorLen()
				if o+l > len(data) {
					return curated.Errorf(InvalidFormat, fmt.Sprintf("pro: truncated sector data at offset %d", o))
				}
				sec.Data = data[o : o+l]
				o += l

				sectors = append(sectors, sec)
			}

			d.FormatTrack(cyl, side, sectors)
		}
	}

	d.SnapType = "pro"
	return nil
}
