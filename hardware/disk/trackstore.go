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

package disk

// Track is one side of one cylinder as the head sees it: the raw MFM byte
// stream including gaps, sync runs, address marks and CRCs, plus a bitmap
// flagging the address-mark bytes (the bytes written with the missing
// clock pattern on real hardware).
type Track struct {
	Data  []uint8
	Marks []uint8
}

// newTrack allocates a track of the given length filled with the gap
// byte.
func newTrack(length int) Track {
	t := Track{
		Data:  make([]uint8, length),
		Marks: make([]uint8, (length+7)/8),
	}
	for i := range t.Data {
		t.Data[i] = gapByte
	}
	return t
}

// SetMark flags the byte at pos as an address mark.
func (t *Track) SetMark(pos int) {
	t.Marks[pos>>3] |= 1 << uint(pos&7)
}

// Marked returns true if the byte at pos is an address mark.
func (t *Track) Marked(pos int) bool {
	if pos < 0 || pos >= len(t.Data) {
		return false
	}
	return t.Marks[pos>>3]&(1<<uint(pos&7)) != 0
}

// operation flags for the Drive.
const (
	OpSectorDirty = 1 << iota
	OpTrackFormatted
)

// raw track geometry. a double density track holds 6250 bytes between
// index holes.
const (
	TrackLen = 6250
	gapByte  = 0x4e

	idam = 0xfe
	dam  = 0xfb

	// deleted data mark, recognised on read
	damDeleted = 0xf8
)

// Sector describes one sector to be laid down on a track: its ID fields,
// its data, and whether its data CRC should be recorded bad (images of
// copy-protected or damaged disks preserve bad CRCs).
type Sector struct {
	C, H, R, N uint8
	Data       []uint8
	BadCRC     bool
}

// SectorLen returns the data field length implied by the N field.
func (s Sector) SectorLen() int {
	return 128 << (s.N & 3)
}

// Drive is the track store for one disk drive: every track of the
// inserted disk held as a raw byte stream.
type Drive struct {
	Cyls  int
	Sides int

	tracks []Track

	// OpType records what has happened to the disk since load.
	OpType uint8

	// SnapType is the source image format, for save-back.
	SnapType string

	// Filename of the source image.
	Filename string

	// head position
	Cylinder int

	// Motor is the T-state time at which the spindle motor stops.
	Motor uint64
}

// NewDrive is the preferred method of initialisation for the Drive type.
// The drive starts with no disk inserted.
func NewDrive() *Drive {
	return &Drive{}
}

// Inserted returns true if a disk is present.
func (d *Drive) Inserted() bool {
	return len(d.tracks) > 0
}

// Eject removes the disk.
func (d *Drive) Eject() {
	d.Cyls = 0
	d.Sides = 0
	d.tracks = nil
	d.OpType = 0
	d.SnapType = ""
	d.Filename = ""
}

// Allocate prepares an empty (unformatted) disk of the given geometry.
func (d *Drive) Allocate(cyls int, sides int) {
	d.Cyls = cyls
	d.Sides = sides
	d.tracks = make([]Track, cyls*sides)
	d.OpType = 0
}

// Track returns the track at the given cylinder and side, allocating a
// blank one on first touch. Returns nil if the address is outside the
// disk.
func (d *Drive) Track(cyl int, side int) *Track {
	if cyl < 0 || cyl >= d.Cyls || side < 0 || side >= d.Sides {
		return nil
	}
	t := &d.tracks[cyl*d.Sides+side]
	if t.Data == nil {
		*t = newTrack(TrackLen)
	}
	return t
}

// crc16 computes the CRC-CCITT used by the WD1793: polynomial 0x1021,
// initialised to 0xffff.
func crc16(crc uint16, data []uint8) uint16 {
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// the CRC runs from the three 0xa1 sync bytes that precede an address
// mark.
func markCRC(mark uint8, fields []uint8) uint16 {
	crc := crc16(0xffff, []uint8{0xa1, 0xa1, 0xa1, mark})
	return crc16(crc, fields)
}

// FormatTrack lays the given sectors down on a track in the standard
// double density layout. The interleave has already been applied by the
// caller (the order of the sectors slice is the physical order).
func (d *Drive) FormatTrack(cyl int, side int, sectors []Sector) {
	t := d.Track(cyl, side)
	if t == nil {
		return
	}
	*t = newTrack(TrackLen)

	pos := 0
	put := func(b uint8, n int) {
		for i := 0; i < n && pos < len(t.Data); i++ {
			t.Data[pos] = b
			pos++
		}
	}

	// post-index gap
	put(gapByte, 80)

	for _, s := range sectors {
		// ID field
		put(0x00, 12)
		put(0xa1, 3)
		idPos := pos
		put(idam, 1)
		t.SetMark(idPos)
		fields := []uint8{s.C, s.H, s.R, s.N}
		for _, f := range fields {
			put(f, 1)
		}
		crc := markCRC(idam, fields)
		put(uint8(crc>>8), 1)
		put(uint8(crc), 1)

		// gap 2
		put(gapByte, 22)

		// data field
		put(0x00, 12)
		put(0xa1, 3)
		dPos := pos
		put(dam, 1)
		t.SetMark(dPos)
		for i := 0; i < s.SectorLen(); i++ {
			b := uint8(0)
			if i < len(s.Data) {
				b = s.Data[i]
			}
			put(b, 1)
		}
		crc = markCRC(dam, t.Data[dPos+1:pos])
		if s.BadCRC {
			crc = ^crc
		}
		put(uint8(crc>>8), 1)
		put(uint8(crc), 1)

		// gap 3
		put(gapByte, 54)
	}

	d.OpType |= OpTrackFormatted
}

// FindIDAM returns the position of the next ID address mark at or after
// pos, wrapping at the end of the track. Returns -1 on an unformatted
// track. wrapped reports whether the search passed the index hole.
func (t *Track) FindIDAM(pos int) (int, bool) {
	if len(t.Data) == 0 {
		return -1, false
	}
	wrapped := false
	for i := 0; i < len(t.Data); i++ {
		p := pos + i
		if p >= len(t.Data) {
			p -= len(t.Data)
			wrapped = true
		}
		if t.Marked(p) && t.Data[p] == idam {
			return p, wrapped
		}
	}
	return -1, false
}

// FindDAM returns the position of the data address mark following the ID
// address mark at idPos, or -1.
func (t *Track) FindDAM(idPos int) int {
	// the data field begins within 43 bytes of the ID field on any
	// sane format
	for i := idPos + 7; i < idPos+60 && i < len(t.Data); i++ {
		if t.Marked(i) && (t.Data[i] == dam || t.Data[i] == damDeleted) {
			return i
		}
	}
	return -1
}

// ReadSector returns the data field of the sector with the given R field
// on the addressed track, for the loaders and traps that bypass the
// controller state machine. ok is false if the sector cannot be found.
func (d *Drive) ReadSector(cyl int, side int, sec uint8) ([]uint8, bool) {
	t := d.Track(cyl, side)
	if t == nil {
		return nil, false
	}

	pos := 0
	for i := 0; i < len(t.Data); i++ {
		p, wrapped := t.FindIDAM(pos)
		if p < 0 || (wrapped && i > 0) {
			return nil, false
		}
		if t.Data[p+3] == sec {
			dp := t.FindDAM(p)
			if dp < 0 {
				return nil, false
			}
			l := 128 << (t.Data[p+4] & 3)
			if dp+1+l > len(t.Data) {
				return nil, false
			}
			return t.Data[dp+1 : dp+1+l], true
		}
		pos = p + 1
	}
	return nil, false
}

// WriteSector replaces the data field of the addressed sector and
// recomputes its CRC. ok is false if the sector cannot be found.
func (d *Drive) WriteSector(cyl int, side int, sec uint8, data []uint8) bool {
	t := d.Track(cyl, side)
	if t == nil {
		return false
	}

	pos := 0
	for i := 0; i < len(t.Data); i++ {
		p, wrapped := t.FindIDAM(pos)
		if p < 0 || (wrapped && i > 0) {
			return false
		}
		if t.Data[p+3] == sec {
			dp := t.FindDAM(p)
			if dp < 0 {
				return false
			}
			l := 128 << (t.Data[p+4] & 3)
			if dp+1+l > len(t.Data) {
				return false
			}
			copy(t.Data[dp+1:dp+1+l], data)
			t.RewriteDataCRC(dp, l)
			d.OpType |= OpSectorDirty
			return true
		}
		pos = p + 1
	}
	return false
}

// RewriteDataCRC recomputes the data field CRC after the field has been
// modified in place.
func (t *Track) RewriteDataCRC(damPos int, length int) {
	if damPos+1+length+2 > len(t.Data) {
		return
	}
	crc := markCRC(t.Data[damPos], t.Data[damPos+1:damPos+1+length])
	t.Data[damPos+1+length] = uint8(crc >> 8)
	t.Data[damPos+1+length+1] = uint8(crc)
}

// DataCRCOK verifies the data field CRC of the sector whose data mark is
// at damPos.
func (t *Track) DataCRCOK(damPos int, length int) bool {
	if damPos+1+length+2 > len(t.Data) {
		return false
	}
	crc := markCRC(t.Data[damPos], t.Data[damPos+1:damPos+1+length])
	return t.Data[damPos+1+length] == uint8(crc>>8) && t.Data[damPos+1+length+1] == uint8(crc)
}
