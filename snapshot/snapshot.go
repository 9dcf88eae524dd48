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

// Package snapshot restores machine state from snapshot files. Unlike the
// tape and disk subsystems there is no engine here: a snapshot bypasses
// everything and writes registers and RAM pages directly.
//
// The three families are told apart the way their ecosystems always have:
// SNA by exact file size, Z80 by extension and header shape, SP by
// signature plus a size consistency check.
package snapshot

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/hardware/cpu"
	"github.com/jetsetilly/gopherzx/hardware/memory"
)

// error patterns raised by the snapshot package.
const (
	// InvalidFormat is raised when a snapshot file fails to parse.
	InvalidFormat = "snapshot: invalid format: %v"
)

// Result carries the machine state a snapshot sets beyond the CPU and
// memory: the border colour for the video collaborator and whether the
// TR-DOS ROM was paged in at save time.
type Result struct {
	Border uint8
	TRDOS  bool
}

// the exact file sizes of the three SNA variants.
const (
	snaLen48     = 49179
	snaLen128    = 131103
	snaLen128Ext = 147487
)

// Load restores machine state from the named snapshot file.
func Load(filename string, mc *cpu.CPU, mem *memory.Memory) (Result, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Result{}, curated.Errorf("snapshot: %v", err)
	}

	return LoadData(data, strings.ToLower(filepath.Ext(filename)), mc, mem)
}

// LoadData restores machine state from an in-memory snapshot image.
func LoadData(data []uint8, ext string, mc *cpu.CPU, mem *memory.Memory) (Result, error) {
	switch {
	case len(data) == snaLen48 || len(data) == snaLen128 || len(data) == snaLen128Ext:
		return loadSNA(data, mc, mem)
	case ext == ".z80":
		return loadZ80(data, mc, mem)
	case len(data) > 2 && data[0] == 'S' && data[1] == 'P':
		return loadSP(data, mc, mem)
	case ext == ".sna":
		return Result{}, curated.Errorf(InvalidFormat, "sna: file size matches no SNA variant")
	}
	return Result{}, curated.Errorf(InvalidFormat, "unrecognised snapshot")
}

func read16(data []uint8, o int) uint16 {
	return uint16(data[o]) | uint16(data[o+1])<<8
}
