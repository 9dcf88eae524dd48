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

package tape_test

import (
	"testing"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/hardware/tape"
	"github.com/jetsetilly/gopherzx/test"
)

func tzxFile(blocks ...[]uint8) []uint8 {
	data := []uint8("ZXTape!\x1a")
	data = append(data, 1, 20)
	for _, b := range blocks {
		data = append(data, b...)
	}
	return data
}

func TestTZXPureTone(t *testing.T) {
	tp, _, _ := newTestTape()

	// 0x12: 100 pulses of 855 T-states
	f := tzxFile([]uint8{0x12, 0x57, 0x03, 0x64, 0x00})
	test.ExpectedSuccess(t, tp.AttachData(f, ".tzx"))

	// 100 pulses and the end marker
	test.Equate(t, tp.Pulses.Len(), 101)
	test.Equate(t, tp.Pulses.Duration(0), uint32(855))
}

func TestTZXPulseSequence(t *testing.T) {
	tp, _, _ := newTestTape()

	// 0x13: three pulses
	f := tzxFile([]uint8{0x13, 0x03, 0x78, 0x08, 0x9b, 0x02, 0xdf, 0x02})
	test.ExpectedSuccess(t, tp.AttachData(f, ".tzx"))

	test.Equate(t, tp.Pulses.Duration(0), uint32(2168))
	test.Equate(t, tp.Pulses.Duration(1), uint32(667))
	test.Equate(t, tp.Pulses.Duration(2), uint32(735))
}

func TestTZXStandardBlock(t *testing.T) {
	tp, _, _ := newTestTape()

	// 0x10: pause 1000ms, the two byte data block from the TAP tests
	f := tzxFile([]uint8{0x10, 0xe8, 0x03, 0x02, 0x00, 0xff, 0x00})
	test.ExpectedSuccess(t, tp.AttachData(f, ".tzx"))

	test.Equate(t, tp.Pulses.Len(), 3220+2+32+1+1)
	test.Equate(t, len(tp.Pulses.Blocks()), 1)
}

func TestTZXTurboBlock(t *testing.T) {
	tp, _, _ := newTestTape()

	// 0x11 with non-standard timings and 7 used bits in the last byte
	body := []uint8{
		0x11,
		0x00, 0x08, // pilot 2048
		0x00, 0x02, // sync1 512
		0x00, 0x02, // sync2 512
		0x00, 0x01, // zero 256
		0x00, 0x02, // one 512
		0x0a, 0x00, // pilot length 10
		0x07,       // used bits
		0x00, 0x00, // no pause
		0x02, 0x00, 0x00, // data length 2
		0xf0, 0x80,
	}
	f := tzxFile(body)
	test.ExpectedSuccess(t, tp.AttachData(f, ".tzx"))

	// 10 pilot, 2 sync, 8 bits + 7 bits at 2 pulses each, end marker
	test.Equate(t, tp.Pulses.Len(), 10+2+30+1)
	test.Equate(t, tp.Pulses.Duration(0), uint32(2048))
}

func TestTZXLoop(t *testing.T) {
	tp, _, _ := newTestTape()

	// loop start (x3) / pure tone of 5 pulses / loop end
	f := tzxFile(
		[]uint8{0x24, 0x03, 0x00},
		[]uint8{0x12, 0x57, 0x03, 0x05, 0x00},
		[]uint8{0x25},
	)
	test.ExpectedSuccess(t, tp.AttachData(f, ".tzx"))

	test.Equate(t, tp.Pulses.Len(), 15+1)
}

func TestTZXJumpSkipsBlock(t *testing.T) {
	tp, _, _ := newTestTape()

	// jump over the first tone; only the second should appear
	f := tzxFile(
		[]uint8{0x23, 0x02, 0x00},
		[]uint8{0x12, 0x57, 0x03, 0x63, 0x00},
		[]uint8{0x12, 0x9b, 0x02, 0x05, 0x00},
	)
	test.ExpectedSuccess(t, tp.AttachData(f, ".tzx"))

	test.Equate(t, tp.Pulses.Len(), 5+1)
	test.Equate(t, tp.Pulses.Duration(0), uint32(667))
}

func TestTZXCallSequence(t *testing.T) {
	tp, _, _ := newTestTape()

	// call the tone at block 2 twice, then fall through to the end.
	// block 0: call sequence, block 1: jump past the subroutine,
	// block 2: tone, block 3: return
	f := tzxFile(
		[]uint8{0x26, 0x02, 0x00, 0x02, 0x00, 0x02, 0x00},
		[]uint8{0x23, 0x03, 0x00},
		[]uint8{0x12, 0x57, 0x03, 0x05, 0x00},
		[]uint8{0x27},
	)
	test.ExpectedSuccess(t, tp.AttachData(f, ".tzx"))

	// the tone plays twice
	test.Equate(t, tp.Pulses.Len(), 10+1)
}

func TestTZXStopIf48K(t *testing.T) {
	tp, _, env := newTestTape()

	f := tzxFile(
		[]uint8{0x12, 0x57, 0x03, 0x05, 0x00},
		[]uint8{0x2a, 0x00, 0x00, 0x00, 0x00},
		[]uint8{0x12, 0x57, 0x03, 0x05, 0x00},
	)

	// not a 48K machine: the marker is ignored and both tones join one
	// block
	test.ExpectedSuccess(t, tp.AttachData(f, ".tzx"))
	test.Equate(t, len(tp.Pulses.Blocks()), 1)

	// on a 48K machine the marker closes a block, stopping playback
	// there
	env.Prefs.Model48 = true
	test.ExpectedSuccess(t, tp.AttachData(f, ".tzx"))
	test.Equate(t, len(tp.Pulses.Blocks()), 2)
}

func TestTZXBadSignatureFallsThrough(t *testing.T) {
	tp, _, _ := newTestTape()

	// without the signature a .tzx file is not recognised at all
	err := tp.AttachData([]uint8("ZXTape?\x1a"), ".tzx")
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Has(err, tape.InvalidFormat), true)
}

func TestTZXZeroPulseLength(t *testing.T) {
	tp, _, _ := newTestTape()

	f := tzxFile([]uint8{0x12, 0x00, 0x00, 0x64, 0x00})
	err := tp.AttachData(f, ".tzx")
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Has(err, tape.InvalidFormat), true)
}

func TestCSW(t *testing.T) {
	tp, _, _ := newTestTape()

	header := make([]uint8, 0x20)
	copy(header, "Compressed Square Wave\x1a")
	header[0x17] = 1 // major version
	header[0x19] = 0x44
	header[0x1a] = 0xac // 44100Hz
	header[0x1b] = 1    // RLE
	header[0x1c] = 1    // initial polarity high

	// three runs, one through the long escape
	data := append(header, 10, 0x00, 0x80, 0x00, 0x00, 0x00, 20)
	test.ExpectedSuccess(t, tp.AttachData(data, ".csw"))

	// 3 runs, the synthetic trailing pause, the end marker
	test.Equate(t, tp.Pulses.Len(), 5)

	tPerSample := uint32(tape.Z80ClockHz / 44100)
	test.Equate(t, tp.Pulses.Duration(0), 10*tPerSample)
	test.Equate(t, tp.Pulses.Duration(1), 128*tPerSample)
	test.Equate(t, tp.Pulses.Duration(2), 20*tPerSample)
	test.Equate(t, tp.Pulses.Duration(3), uint32(tape.Z80ClockHz/10))
}

func TestCSWBadHeader(t *testing.T) {
	tp, _, _ := newTestTape()

	header := make([]uint8, 0x20)
	copy(header, "Compressed Square Wave\x1a")
	header[0x19] = 0x44
	header[0x1a] = 0xac
	header[0x1b] = 2 // Z-RLE is a v2 feature

	err := tp.AttachData(header, ".csw")
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Has(err, tape.InvalidFormat), true)
}
