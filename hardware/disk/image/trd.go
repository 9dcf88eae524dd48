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

// TRD geometry.
const (
	trdSectors   = 16
	trdSectorLen = 256
	trdTrackLen  = trdSectors * trdSectorLen
)

// the disk descriptor lives in sector 9 of track 0.
const (
	trdDescOffset = 8 * trdSectorLen

	descFirstFreeSec = 0xe1
	descFirstFreeTrk = 0xe2
	descDiskType     = 0xe3
	descFileCount    = 0xe4
	descFreeSectors  = 0xe5
	descTRDOSID      = 0xe7
	descLabel        = 0xf5
)

// trdosID is the value identifying a TR-DOS format disk.
const trdosID = 0x10

// trdGeometry decodes the disk type byte of the descriptor.
func trdGeometry(diskType uint8) (cyls int, sides int, ok bool) {
	switch diskType {
	case 0x16:
		return 80, 2, true
	case 0x17:
		return 40, 2, true
	case 0x18:
		return 80, 1, true
	case 0x19:
		return 40, 1, true
	}
	return 0, 0, false
}

// interleaveOrder returns the physical ordering of the sector numbers
// 1..n for the configured interleave: 0 is sequential, 1 alternates
// halves, 2 is a three-to-one spiral.
func interleaveOrder(n int, interleave int) []uint8 {
	order := make([]uint8, n)

	switch interleave {
	case 1:
		for i := 0; i < n/2; i++ {
			order[i*2] = uint8(i + 1)
			order[i*2+1] = uint8(i + 1 + n/2)
		}
	case 2:
		used := make([]bool, n)
		pos := 0
		for s := 1; s <= n; s++ {
			for used[pos] {
				pos = (pos + 1) % n
			}
			order[pos] = uint8(s)
			used[pos] = true
			pos = (pos + 3) % n
		}
	default:
		for i := range order {
			order[i] = uint8(i + 1)
		}
	}

	return order
}

// attachTRD parses a raw TRD dump: a plain sector-by-sector image in
// logical order.
func attachTRD(d *disk.Drive, data []uint8, interleave int) error {
	if len(data) < trdDescOffset+0x100 {
		return curated.Errorf(InvalidFormat, "trd: too short to hold a disk descriptor")
	}
	if len(data)%trdTrackLen != 0 {
		return curated.Errorf(InvalidFormat, fmt.Sprintf("trd: length %d is not a whole number of tracks", len(data)))
	}

	cyls, sides, ok := trdGeometry(data[trdDescOffset+descDiskType])
	if !ok {
		// not all images carry a valid descriptor; fall back to the
		// file size
		switch len(data) {
		case 655360:
			cyls, sides = 80, 2
		case 327680:
			cyls, sides = 80, 1
		case 163840:
			cyls, sides = 40, 1
		default:
			return curated.Errorf(InvalidFormat, fmt.Sprintf("trd: unknown disk type %#02x at offset %#x", data[trdDescOffset+descDiskType], trdDescOffset+descDiskType))
		}
	}

	d.Allocate(cyls, sides)

	order := interleaveOrder(trdSectors, interleave)

	for cyl := 0; cyl < cyls; cyl++ {
		for side := 0; side < sides; side++ {
			base := (cyl*sides + side) * trdTrackLen

			sectors := make([]disk.Sector, 0, trdSectors)
			for _, r := range order {
				o := base + int(r-1)*trdSectorLen
				var sec []uint8
				if o+trdSectorLen <= len(data) {
					sec = data[o : o+trdSectorLen]
				}
				sectors = append(sectors, disk.Sector{
					C:    uint8(cyl),
					H:    0,
					R:    r,
					N:    1,
					Data: sec,
				})
			}

			d.FormatTrack(cyl, side, sectors)
		}
	}

	d.SnapType = "trd"
	return nil
}

// WriteTRD re-encodes a drive's contents as a raw TRD dump. For an image
// loaded from a TRD and not written to, the output is byte-identical to
// the input.
func WriteTRD(d *disk.Drive) ([]uint8, error) {
	out := make([]uint8, 0, d.Cyls*d.Sides*trdTrackLen)

	for cyl := 0; cyl < d.Cyls; cyl++ {
		for side := 0; side < d.Sides; side++ {
			for r := uint8(1); r <= trdSectors; r++ {
				sec, ok := d.ReadSector(cyl, side, r)
				if !ok {
					return nil, curated.Errorf("disk image: trd: cannot read cyl %v side %v sector %v", cyl, side, r)
				}
				out = append(out, sec...)
			}
		}
	}

	return out, nil
}

// trdBuilder composes a TRD image in memory. The SCL and hobeta loaders
// initialise an empty disk and add files to it one at a time, exactly as
// TR-DOS itself would.
type trdBuilder struct {
	data []uint8
}

// newTRDBuilder formats an empty double sided eighty track disk.
func newTRDBuilder() *trdBuilder {
	b := &trdBuilder{
		data: make([]uint8, 80*2*trdTrackLen),
	}

	desc := b.data[trdDescOffset:]
	desc[descFirstFreeSec] = 0
	desc[descFirstFreeTrk] = 1
	desc[descDiskType] = 0x16
	desc[descTRDOSID] = trdosID
	free := 80*2*trdSectors - trdSectors
	desc[descFreeSectors] = uint8(free)
	desc[descFreeSectors+1] = uint8(free >> 8)
	copy(desc[descLabel:descLabel+8], "        ")

	return b
}

// addFile appends a file: a 16-byte directory entry in the catalogue
// sectors and the data at the first free sector.
func (b *trdBuilder) addFile(name []uint8, start uint16, length uint16, sectors uint8, data []uint8) error {
	desc := b.data[trdDescOffset:]

	count := int(desc[descFileCount])
	if count >= 128 {
		return curated.Errorf(InvalidFormat, "trd: directory full")
	}

	free := read16(desc, descFreeSectors)
	if int(sectors) > free {
		return curated.Errorf(InvalidFormat, "trd: disk full")
	}

	freeSec := int(desc[descFirstFreeSec])
	freeTrk := int(desc[descFirstFreeTrk])

	// directory entry: name and extension (9 bytes), start, length,
	// sector count, first sector and track
	e := b.data[count*16:]
	copy(e[:9], name)
	e[9] = uint8(start)
	e[10] = uint8(start >> 8)
	e[11] = uint8(length)
	e[12] = uint8(length >> 8)
	e[13] = sectors
	e[14] = uint8(freeSec)
	e[15] = uint8(freeTrk)

	// file data at the first free sector
	o := freeTrk*trdTrackLen + freeSec*trdSectorLen
	copy(b.data[o:], data)

	// advance the free pointer
	s := freeTrk*trdSectors + freeSec + int(sectors)
	desc[descFirstFreeSec] = uint8(s % trdSectors)
	desc[descFirstFreeTrk] = uint8(s / trdSectors)
	desc[descFileCount] = uint8(count + 1)
	free -= int(sectors)
	desc[descFreeSectors] = uint8(free)
	desc[descFreeSectors+1] = uint8(free >> 8)

	return nil
}
