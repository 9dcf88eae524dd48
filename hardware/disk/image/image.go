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

// Package image parses floppy disk image files into the track store used
// by the disk controller. Every format, whether sector-oriented (TRD,
// SCL) or track-oriented (UDI, FDI), ends up as the same raw byte stream
// representation, so the controller never knows where a disk came from.
package image

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/hardware/disk"
)

// error patterns raised by the image package.
const (
	// InvalidFormat is raised when a disk image fails to parse.
	InvalidFormat = "disk image: invalid format: %v"
)

// Attach parses the named disk image file into the supplied drive. The
// interleave argument selects the sector ordering used when a
// sector-oriented image is laid down onto raw tracks.
func Attach(d *disk.Drive, filename string, interleave int) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return curated.Errorf("disk image: %v", err)
	}

	err = AttachData(d, data, strings.ToLower(filepath.Ext(filename)), interleave)
	if err != nil {
		return err
	}

	d.Filename = filename
	return nil
}

// AttachData parses an in-memory disk image. Fingerprinting prefers the
// signature over the extension hint; the raw TRD format has no signature
// and is the fallback.
func AttachData(d *disk.Drive, data []uint8, ext string, interleave int) error {
	d.Eject()

	var err error
	switch {
	case bytes.HasPrefix(data, []uint8(sclSignature)):
		err = attachSCL(d, data, interleave)
	case bytes.HasPrefix(data, []uint8(udiSignature)):
		err = attachUDI(d, data)
	case bytes.HasPrefix(data, []uint8(fdiSignature)):
		err = attachFDI(d, data)
	case bytes.HasPrefix(data, []uint8("TD")) && ext == ".td0":
		err = attachTD0(d, data, interleave)
	case bytes.HasPrefix(data, []uint8("td")) && ext == ".td0":
		err = curated.Errorf(InvalidFormat, "td0: lzh compressed images are not supported")
	case ext == ".isd":
		err = attachISD(d, data)
	case ext == ".pro":
		err = attachPRO(d, data)
	case isHobetaExt(ext):
		err = attachHobeta(d, data, interleave)
	case ext == ".trd" || ext == "":
		err = attachTRD(d, data, interleave)
	default:
		err = curated.Errorf(InvalidFormat, "unrecognised disk image")
	}

	if err != nil {
		d.Eject()
		return err
	}

	return nil
}

func isHobetaExt(ext string) bool {
	switch ext {
	case ".hob", ".$b", ".$c", ".$d", ".$#":
		return true
	}
	// the TR-DOS convention names hobeta files "$x" for BASIC, code,
	// data
	return strings.HasPrefix(ext, ".$")
}

// read16 and read32 are the little endian readers shared by the format
// parsers.
func read16(data []uint8, o int) int {
	return int(data[o]) | int(data[o+1])<<8
}

func read32(data []uint8, o int) int {
	return read16(data, o) | read16(data, o+2)<<16
}
