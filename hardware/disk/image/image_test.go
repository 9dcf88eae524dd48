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
	"bytes"
	"testing"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/hardware/disk"
	"github.com/jetsetilly/gopherzx/test"
)

// testTRD builds a double sided eighty track image with a valid
// descriptor and a recognisable fill pattern.
func testTRD() []uint8 {
	data := make([]uint8, 655360)
	for i := range data {
		data[i] = uint8(i>>8) ^ uint8(i)
	}

	desc := data[trdDescOffset:]
	desc[descFirstFreeSec] = 0
	desc[descFirstFreeTrk] = 1
	desc[descDiskType] = 0x16
	desc[descFileCount] = 0
	desc[descFreeSectors] = 0xf0
	desc[descFreeSectors+1] = 0x09
	desc[descTRDOSID] = trdosID

	return data
}

func TestTRDGeometry(t *testing.T) {
	d := disk.NewDrive()

	test.ExpectedSuccess(t, AttachData(d, testTRD(), ".trd", 1))
	test.Equate(t, d.Cyls, 80)
	test.Equate(t, d.Sides, 2)
	test.Equate(t, d.SnapType, "trd")

	// the descriptor sector reads back with the TR-DOS signature
	sec, ok := d.ReadSector(0, 0, 9)
	test.Equate(t, ok, true)
	test.Equate(t, sec[descDiskType], 0x16)
	test.Equate(t, sec[descTRDOSID], trdosID)
}

func TestTRDRoundTrip(t *testing.T) {
	for _, interleave := range []int{0, 1, 2} {
		d := disk.NewDrive()

		src := testTRD()
		test.ExpectedSuccess(t, AttachData(d, src, ".trd", interleave))

		out, err := WriteTRD(d)
		test.ExpectedSuccess(t, err)

		if !bytes.Equal(src, out) {
			t.Errorf("trd round trip differs at interleave %d", interleave)
		}
	}
}

func TestTRDBadSize(t *testing.T) {
	d := disk.NewDrive()

	err := AttachData(d, make([]uint8, 1000), ".trd", 1)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Has(err, InvalidFormat), true)
	test.Equate(t, d.Inserted(), false)
}

func TestInterleaveOrders(t *testing.T) {
	seq := interleaveOrder(16, 0)
	test.Equate(t, seq[0], 1)
	test.Equate(t, seq[15], 16)

	alt := interleaveOrder(16, 1)
	test.Equate(t, alt[0], 1)
	test.Equate(t, alt[1], 9)
	test.Equate(t, alt[2], 2)

	// every sector number appears exactly once whatever the scheme
	for _, il := range []int{0, 1, 2} {
		seen := make(map[uint8]bool)
		for _, r := range interleaveOrder(16, il) {
			if seen[r] {
				t.Fatalf("duplicate sector %d at interleave %d", r, il)
			}
			seen[r] = true
		}
		test.Equate(t, len(seen), 16)
	}
}

func TestSCL(t *testing.T) {
	d := disk.NewDrive()

	// one file of two sectors
	data := []uint8("SINCLAIR")
	data = append(data, 1)
	entry := make([]uint8, 14)
	copy(entry, "file    C")
	entry[9] = 0x00
	entry[10] = 0x80 // start 0x8000
	entry[11] = 0x00
	entry[12] = 0x02 // length 0x200
	entry[13] = 2    // sectors
	data = append(data, entry...)
	payload := make([]uint8, 512)
	for i := range payload {
		payload[i] = uint8(i)
	}
	data = append(data, payload...)

	test.ExpectedSuccess(t, AttachData(d, data, ".scl", 1))
	test.Equate(t, d.SnapType, "scl")

	// the descriptor records the file
	sec, ok := d.ReadSector(0, 0, 9)
	test.Equate(t, ok, true)
	test.Equate(t, sec[descFileCount], 1)
	test.Equate(t, sec[descTRDOSID], trdosID)

	// the directory entry is in the first catalogue sector
	cat, ok := d.ReadSector(0, 0, 1)
	test.Equate(t, ok, true)
	test.Equate(t, string(cat[:9]), "file    C")
	test.Equate(t, cat[13], 2)

	// the payload landed at the first free sector: logical track 1,
	// which is side 1 of cylinder 0
	body, ok := d.ReadSector(0, 1, 1)
	test.Equate(t, ok, true)
	test.Equate(t, body[1], 1)
}

func TestHobeta(t *testing.T) {
	d := disk.NewDrive()

	hdr := make([]uint8, hobHeaderLen)
	copy(hdr, "boot    B")
	hdr[9] = 0x00
	hdr[10] = 0x5d
	hdr[11] = 0x00
	hdr[12] = 0x01
	hdr[14] = 1

	sum := uint16(0)
	for i := 0; i < 15; i++ {
		sum += uint16(hdr[i])*257 + uint16(i)
	}
	hdr[15] = uint8(sum)
	hdr[16] = uint8(sum >> 8)

	payload := make([]uint8, 256)
	payload[0] = 0xc3

	test.ExpectedSuccess(t, AttachData(d, append(hdr, payload...), ".$b", 1))
	test.Equate(t, d.SnapType, "hob")

	body, ok := d.ReadSector(0, 1, 1)
	test.Equate(t, ok, true)
	test.Equate(t, body[0], 0xc3)
}

func TestHobetaBadChecksum(t *testing.T) {
	d := disk.NewDrive()

	hdr := make([]uint8, hobHeaderLen)
	copy(hdr, "boot    B")
	hdr[15] = 0xde
	hdr[16] = 0xad

	err := AttachData(d, append(hdr, make([]uint8, 256)...), ".$b", 1)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Has(err, InvalidFormat), true)
}

func TestUDIRoundTrip(t *testing.T) {
	d := disk.NewDrive()

	test.ExpectedSuccess(t, AttachData(d, testTRD(), ".trd", 1))

	// the UDI encoding of a drive reloads to an identical drive
	udi := WriteUDI(d)

	d2 := disk.NewDrive()
	test.ExpectedSuccess(t, AttachData(d2, udi, ".udi", 1))
	test.Equate(t, d2.Cyls, d.Cyls)
	test.Equate(t, d2.Sides, d.Sides)

	a, _ := d.ReadSector(40, 1, 7)
	b, ok := d2.ReadSector(40, 1, 7)
	test.Equate(t, ok, true)
	if !bytes.Equal(a, b) {
		t.Errorf("udi round trip differs")
	}
}

func TestTD0Rejected(t *testing.T) {
	d := disk.NewDrive()

	// the lowercase signature marks LZH compression
	err := AttachData(d, []uint8("td0000000000"), ".td0", 1)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Has(err, InvalidFormat), true)
}

func TestFDI(t *testing.T) {
	d := disk.NewDrive()

	// one cylinder, one side, two sectors with irregular sector IDs
	var data []uint8
	data = append(data, []uint8("FDI")...)
	data = append(data, 0)    // write protect
	data = append(data, 1, 0) // cyls
	data = append(data, 1, 0) // sides
	data = append(data, 0, 0) // description offset
	dataOffset := 14 + 7 + 2*7
	data = append(data, uint8(dataOffset), uint8(dataOffset>>8))
	data = append(data, 0, 0) // no extra header

	// track header
	data = append(data, 0, 0, 0, 0, 0, 0, 2)

	// two sector descriptors: sector IDs 0x23 and 0x42
	data = append(data, 0, 0, 0x23, 1, 0x02, 0, 0)
	data = append(data, 0, 0, 0x42, 1, 0x02, 0x00, 0x01)

	sec1 := make([]uint8, 256)
	sec1[0] = 0x11
	sec2 := make([]uint8, 256)
	sec2[0] = 0x22
	data = append(data, sec1...)
	data = append(data, sec2...)

	test.ExpectedSuccess(t, AttachData(d, data, ".fdi", 1))

	body, ok := d.ReadSector(0, 0, 0x23)
	test.Equate(t, ok, true)
	test.Equate(t, body[0], 0x11)

	body, ok = d.ReadSector(0, 0, 0x42)
	test.Equate(t, ok, true)
	test.Equate(t, body[0], 0x22)
}
