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

const udiSignature = "UDI!"

const udiHeaderLen = 16

// attachUDI parses a UDI image. UDI is the only format that stores
// exactly what the track store holds: the raw MFM byte stream of every
// track alongside a bitmap of the address mark positions, so the loader
// is a straight copy.
func attachUDI(d *disk.Drive, data []uint8) error {
	if len(data) < udiHeaderLen {
		return curated.Errorf(InvalidFormat, "udi: truncated header")
	}

	length := read32(data, 4)
	if length > len(data) {
		return curated.Errorf(InvalidFormat, fmt.Sprintf("udi: declared length %d exceeds file size", length))
	}

	cyls := int(data[9]) + 1
	sides := int(data[10]) + 1
	if sides > 2 {
		return curated.Errorf(InvalidFormat, "udi: implausible side count at offset 10")
	}

	d.Allocate(cyls, sides)

	o := udiHeaderLen
	for cyl := 0; cyl < cyls; cyl++ {
		for side := 0; side < sides; side++ {
			if o+3 > len(data) {
				return curated.Errorf(InvalidFormat, fmt.Sprintf("udi: truncated track header at offset %d", o))
			}

			trackType := data[o]
			l := read16(data, o+1)
			o += 3

			if trackType != 0 {
				return curated.Errorf(InvalidFormat, fmt.Sprintf("udi: unsupported track type %d at offset %d", trackType, o-3))
			}

			marksLen := (l + 7) / 8
			if o+l+marksLen > len(data) {
				return curated.Errorf(InvalidFormat, fmt.Sprintf("udi: truncated track data at offset %d", o))
			}

			t := d.Track(cyl, side)
			t.Data = make([]uint8, l)
			copy(t.Data, data[o:o+l])
			t.Marks = make([]uint8, marksLen)
			copy(t.Marks, data[o+l:o+l+marksLen])

			o += l + marksLen
		}
	}

	d.SnapType = "udi"
	return nil
}

// WriteUDI re-encodes a drive's contents as a UDI image.
func WriteUDI(d *disk.Drive) []uint8 {
	body := make([]uint8, 0)

	for cyl := 0; cyl < d.Cyls; cyl++ {
		for side := 0; side < d.Sides; side++ {
			t := d.Track(cyl, side)
			body = append(body, 0x00, uint8(len(t.Data)), uint8(len(t.Data)>>8))
			body = append(body, t.Data...)
			body = append(body, t.Marks...)
		}
	}

	out := make([]uint8, udiHeaderLen, udiHeaderLen+len(body)+4)
	copy(out, udiSignature)
	total := udiHeaderLen + len(body)
	out[4] = uint8(total)
	out[5] = uint8(total >> 8)
	out[6] = uint8(total >> 16)
	out[7] = uint8(total >> 24)
	out[9] = uint8(d.Cyls - 1)
	out[10] = uint8(d.Sides - 1)
	out = append(out, body...)

	// trailing CRC32 over everything before it
	crc := udiCRC(out)
	out = append(out, uint8(crc), uint8(crc>>8), uint8(crc>>16), uint8(crc>>24))

	return out
}

// udiCRC is the CRC32 variant the UDI specification asks for.
func udiCRC(data []uint8) uint32 {
	crc := ^uint32(0)
	for _, b := range data {
		crc ^= uint32(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0xedb88320
			} else {
				crc >>= 1
			}
		}
	}
	return ^crc
}
