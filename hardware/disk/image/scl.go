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

const sclSignature = "SINCLAIR"

// attachSCL parses an SCL archive: a list of TR-DOS files without the
// disk structure. The loader formats an empty TRD and adds the files to
// it one at a time.
func attachSCL(d *disk.Drive, data []uint8, interleave int) error {
	o := len(sclSignature)
	if len(data) < o+1 {
		return curated.Errorf(InvalidFormat, "scl: truncated header")
	}

	count := int(data[o])
	o++

	type entry struct {
		header []uint8
	}

	entries := make([]entry, 0, count)
	for i := 0; i < count; i++ {
		if o+14 > len(data) {
			return curated.Errorf(InvalidFormat, fmt.Sprintf("scl: truncated file entry at offset %d", o))
		}
		entries = append(entries, entry{header: data[o : o+14]})
		o += 14
	}

	b := newTRDBuilder()

	for i, e := range entries {
		sectors := int(e.header[13])
		l := sectors * trdSectorLen
		if o+l > len(data) {
			return curated.Errorf(InvalidFormat, fmt.Sprintf("scl: truncated data for file %d at offset %d", i, o))
		}

		start := uint16(read16(e.header, 9))
		length := uint16(read16(e.header, 11))
		err := b.addFile(e.header[:9], start, length, uint8(sectors), data[o:o+l])
		if err != nil {
			return err
		}
		o += l
	}

	err := attachTRD(d, b.data, interleave)
	if err != nil {
		return err
	}
	d.SnapType = "scl"
	return nil
}
