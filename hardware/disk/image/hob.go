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
	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/hardware/disk"
)

// the hobeta header: filename and extension, start address, length,
// reserved byte, sector count, header checksum.
const hobHeaderLen = 17

// attachHobeta parses a hobeta file: a single TR-DOS file with a 17-byte
// header. It is loaded into a freshly formatted TRD at sequential
// sectors.
func attachHobeta(d *disk.Drive, data []uint8, interleave int) error {
	if len(data) < hobHeaderLen {
		return curated.Errorf(InvalidFormat, "hobeta: truncated header")
	}

	// checksum over the first fifteen header bytes
	sum := uint16(0)
	for i := 0; i < 15; i++ {
		sum += uint16(data[i])*257 + uint16(i)
	}
	if sum != uint16(read16(data, 15)) {
		return curated.Errorf(InvalidFormat, "hobeta: header checksum mismatch")
	}

	start := uint16(read16(data, 9))
	length := uint16(read16(data, 11))
	sectors := data[14]
	if sectors == 0 {
		sectors = uint8((int(length) + trdSectorLen - 1) / trdSectorLen)
	}

	payload := data[hobHeaderLen:]
	if len(payload) > int(sectors)*trdSectorLen {
		payload = payload[:int(sectors)*trdSectorLen]
	}

	b := newTRDBuilder()
	err := b.addFile(data[:9], start, length, sectors, payload)
	if err != nil {
		return err
	}

	err = attachTRD(d, b.data, interleave)
	if err != nil {
		return err
	}
	d.SnapType = "hob"
	return nil
}
