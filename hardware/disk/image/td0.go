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

// attachTD0 parses an uncompressed Teledisk image. The "td" variant of
// the signature marks LZH compression of everything after the header,
// which is rejected before we get here.
func attachTD0(d *disk.Drive, data []uint8, interleave int) error {
	if len(data) < 12 {
		return curated.Errorf(InvalidFormat, "td0: truncated header")
	}

	sides := int(data[9])
	if sides != 1 {
		sides = 2
	}

	o := 12

	// optional comment block
	if data[7]&0x80 != 0 {
		if o+10 > len(data) {
			return curated.Errorf(InvalidFormat, "td0: truncated comment block")
		}
		l := read16(data, o+2)
		o += 10 + l
	}

	// the track records carry their own addressing, so collect first and
	// size the disk afterwards
	type trackRec struct {
		cyl, side int
		sectors   []disk.Sector
	}
	var tracks []trackRec
	maxCyl := 0

	for {
		if o+1 > len(data) {
			return curated.Errorf(InvalidFormat, fmt.Sprintf("td0: truncated track record at offset %d", o))
		}
		nsec := int(data[o])
		if nsec == 0xff {
			break
		}
		if o+4 > len(data) {
			return curated.Errorf(InvalidFormat, fmt.Sprintf("td0: truncated track record at offset %d", o))
		}

		cyl := int(data[o+1])
		side := int(data[o+2]) & 0x01
		o += 4

		if cyl > maxCyl {
			maxCyl = cyl
		}

		rec := trackRec{cyl: cyl, side: side}

		for s := 0; s < nsec; s++ {
			if o+6 > len(data) {
				return curated.Errorf(InvalidFormat, fmt.Sprintf("td0: truncated sector header at offset %d", o))
			}

			c, h, r, n := data[o], data[o+1], data[o+2], data[o+3]
			flags := data[o+4]
			o += 6

			sec := disk.Sector{C: c, H: h, R: r, N: n}

			// flag 0x30: sector has no data field in the image
			if flags&0x30 == 0 {
				if o+3 > len(data) {
					return curated.Errorf(InvalidFormat, fmt.Sprintf("td0: truncated data block at offset %d", o))
				}
				bl := read16(data, o)
				encoding := data[o+2]
				o += 3

				if o+bl-1 > len(data) {
					return curated.Errorf(InvalidFormat, fmt.Sprintf("td0: truncated data block at offset %d", o))
				}
				raw := data[o : o+bl-1]
				o += bl - 1

				dec, err := td0Decode(encoding, raw, sec.SectorLen())
				if err != nil {
					return err
				}
				sec.Data = dec
				sec.BadCRC = flags&0x02 != 0
			}

			rec.sectors = append(rec.sectors, sec)
		}

		tracks = append(tracks, rec)
	}

	d.Allocate(maxCyl+1, sides)
	for _, rec := range tracks {
		d.FormatTrack(rec.cyl, rec.side, rec.sectors)
	}

	d.SnapType = "td0"
	return nil
}

// td0Decode expands one data block. Encoding 0 is raw, encoding 1 a
// repeated two byte pattern, encoding 2 a sequence of literal and
// run-length fragments.
func td0Decode(encoding uint8, raw []uint8, want int) ([]uint8, error) {
	switch encoding {
	case 0:
		return raw, nil

	case 1:
		if len(raw) < 4 {
			return nil, curated.Errorf(InvalidFormat, "td0: short pattern block")
		}
		count := read16(raw, 0)
		out := make([]uint8, 0, count*2)
		for i := 0; i < count; i++ {
			out = append(out, raw[2], raw[3])
		}
		return out, nil

	case 2:
		out := make([]uint8, 0, want)
		o := 0
		for o < len(raw) {
			code := raw[o]
			o++
			if code == 0 {
				// literal run
				if o >= len(raw) {
					return nil, curated.Errorf(InvalidFormat, "td0: short literal fragment")
				}
				l := int(raw[o])
				o++
				if o+l > len(raw) {
					return nil, curated.Errorf(InvalidFormat, "td0: short literal fragment")
				}
				out = append(out, raw[o:o+l]...)
				o += l
			} else {
				// repeated fragment of 2*code bytes
				l := int(code) * 2
				if o >= len(raw) {
					return nil, curated.Errorf(InvalidFormat, "td0: short repeat fragment")
				}
				rep := int(raw[o])
				o++
				if o+l > len(raw) {
					return nil, curated.Errorf(InvalidFormat, "td0: short repeat fragment")
				}
				for i := 0; i < rep; i++ {
					out = append(out, raw[o:o+l]...)
				}
				o += l
			}
		}
		return out, nil
	}

	return nil, curated.Errorf(InvalidFormat, fmt.Sprintf("td0: unknown data encoding %d", encoding))
}
