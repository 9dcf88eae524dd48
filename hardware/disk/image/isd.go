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

// attachISD parses an ISD image: a small geometry header followed by an
// array of per-sector headers (CHRN plus data offset), in the same
// pattern as FDI but without the per-track indirection.
func attachISD(d *disk.Drive, data []uint8) error {
	if len(data) < 8 {
		return curated.Errorf(InvalidFormat, "isd: truncated header")
	}

	cyls := int(data[4])
	sides := int(data[5])
	nsec := read16(data, 6)

	if cyls == 0 || cyls > 86 || sides == 0 || sides > 2 {
		return curated.Errorf(InvalidFormat, fmt.Sprintf("isd: implausible geometry %dx%d", cyls, sides))
	}

	d.Allocate(cyls, sides)

	// collect the sectors per track before formatting
	bucket := make(map[int][]disk.Sector)

	o := 8
	for s := 0; s < nsec; s++ {
		if o+9 > len(data) {
			return curated.Errorf(InvalidFormat, fmt.Sprintf("isd: truncated sector header at offset %d", o))
		}

		c, h, r, n := data[o], data[o+1], data[o+2], data[o+3]
		flags := data[o+4]
		do := read32(data, o+5)
		o += 9

		sec := disk.Sector{C: c, H: h, R: r, N: n, BadCRC: flags&0x01 != 0}

		l := sec.SectorLen()
		if do+l > len(data) {
			return curated.Errorf(InvalidFormat, fmt.Sprintf("isd: sector data out of range at offset %d", do))
		}
		sec.Data = data[do : do+l]

		key := int(c)*2 + int(h)&1
		bucket[key] = append(bucket[key], sec)
	}

	for cyl := 0; cyl < cyls; cyl++ {
		for side := 0; side < sides; side++ {
			d.FormatTrack(cyl, side, bucket[cyl*2+side])
		}
	}

	d.SnapType = "isd"
	return nil
}
