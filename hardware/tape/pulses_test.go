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

package tape

import (
	"testing"

	"github.com/jetsetilly/gopherzx/test"
)

func TestPulseInterning(t *testing.T) {
	ps := NewPulseStore()

	ps.Append(2168)
	ps.Append(2168)
	ps.Append(667)

	test.Equate(t, ps.Len(), 3)
	test.Equate(t, ps.Duration(0), uint32(2168))
	test.Equate(t, ps.Duration(1), uint32(2168))
	test.Equate(t, ps.Duration(2), uint32(667))
}

func TestPulseTableFull(t *testing.T) {
	ps := NewPulseStore()

	// fill the table with distinct durations
	for i := 0; i < MaxPulses; i++ {
		ps.Append(uint32(1000 + i*10))
	}

	// a new duration must map to the nearest existing entry
	ps.Append(1014)
	test.Equate(t, ps.Duration(ps.Len()-1), uint32(1010))

	// on an exact tie the earlier entry wins
	ps.Append(1015)
	test.Equate(t, ps.Duration(ps.Len()-1), uint32(1010))
}

func TestImageIndexesStayValid(t *testing.T) {
	ps := NewPulseStore()

	for i := 0; i < 1000; i++ {
		ps.Append(uint32(500 + i*7))
	}
	ps.CloseBlock("test", nil)

	// every byte of the image before the closing marker indexes a live
	// table entry
	for i := 0; i < ps.Len()-1; i++ {
		if ps.Duration(i) == EndOfTape {
			t.Fatalf("premature end marker at %d", i)
		}
	}
	test.Equate(t, ps.Duration(ps.Len()-1), EndOfTape)
}

func TestBlockMetadata(t *testing.T) {
	ps := NewPulseStore()

	ps.AppendN(2168, 100)
	ps.CloseBlock("pilot", nil)
	ps.Append(855)
	ps.Append(855)
	ps.CloseBlock("bits", []uint8{0x00})

	blocks := ps.Blocks()
	test.Equate(t, len(blocks), 2)
	test.Equate(t, blocks[0].Description, "pilot")
	test.Equate(t, blocks[0].Offset, 0)
	test.Equate(t, blocks[0].TStates, uint64(216800))
	test.Equate(t, blocks[1].Offset, 101)
	test.Equate(t, blocks[1].TStates, uint64(1710))
}
