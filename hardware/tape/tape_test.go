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
	"bytes"
	"testing"

	"github.com/jetsetilly/gopherzx/environment"
	"github.com/jetsetilly/gopherzx/hardware/clock"
	"github.com/jetsetilly/gopherzx/hardware/cpu"
	"github.com/jetsetilly/gopherzx/hardware/cpu/registers"
	"github.com/jetsetilly/gopherzx/hardware/tape"
	"github.com/jetsetilly/gopherzx/test"
)

type mockMem struct {
	internal []uint8
}

func newMockMem() *mockMem {
	return &mockMem{internal: make([]uint8, 0x10000)}
}

func (mem *mockMem) Read(address uint16) uint8 {
	return mem.internal[address]
}

func (mem *mockMem) Write(address uint16, data uint8) {
	mem.internal[address] = data
}

type mockPorts struct{}

func (p *mockPorts) In(port uint16) uint8     { return 0xff }
func (p *mockPorts) Out(port uint16, v uint8) {}

func newTestTape() (*tape.Tape, *clock.Clock, *environment.Environment) {
	env := environment.NewEnvironment(environment.MainEmulation, nil)
	clk := clock.NewClock(71680, 0, 32)
	return tape.NewTape(env, clk), clk, env
}

// the two block TAP file used by several tests: a 19 byte header block
// and a minimal data block.
func testTAP() []uint8 {
	header := make([]uint8, 19)
	header[0] = 0x00
	copy(header[2:], "test      ")

	var data []uint8
	data = append(data, 19, 0)
	data = append(data, header...)
	data = append(data, 2, 0, 0xff, 0x00)
	return data
}

func TestParseTAP(t *testing.T) {
	tp, _, _ := newTestTape()

	test.ExpectedSuccess(t, tp.AttachData(testTAP(), ".tap"))
	test.Equate(t, len(tp.Pulses.Blocks()), 2)

	// header block: 8064 pilot pulses, two syncs, 19 bytes at 16 pulses
	// each, the pause, the block marker
	headerLen := 8064 + 2 + 19*16 + 1 + 1
	test.Equate(t, tp.Pulses.Blocks()[0].Offset, 0)
	test.Equate(t, tp.Pulses.Blocks()[1].Offset, headerLen)

	// data block: short pilot for a data flag byte
	dataLen := 3220 + 2 + 2*16 + 1 + 1
	test.Equate(t, tp.Pulses.Len(), headerLen+dataLen)

	// canonical ROM timings in temporal order
	test.Equate(t, tp.Pulses.Duration(0), uint32(2168))
	test.Equate(t, tp.Pulses.Duration(8064), uint32(667))
	test.Equate(t, tp.Pulses.Duration(8065), uint32(735))
	test.Equate(t, tp.Pulses.Duration(8066), uint32(855))

	// first bit of the data block's flag byte is a one
	test.Equate(t, tp.Pulses.Duration(headerLen+3220+2), uint32(1710))
}

func TestTAPRoundTrip(t *testing.T) {
	tp, _, _ := newTestTape()

	src := testTAP()
	test.ExpectedSuccess(t, tp.AttachData(src, ".tap"))

	out := tp.WriteTAP()
	if !bytes.Equal(src, out) {
		t.Errorf("tap round trip differs (%d bytes in, %d bytes out)", len(src), len(out))
	}
}

func TestParseTAPTruncated(t *testing.T) {
	tp, _, _ := newTestTape()

	test.ExpectedFailure(t, tp.AttachData([]uint8{19, 0, 0x00}, ".tap"))
	test.Equate(t, tp.Pulses.Len(), 0)
}

func TestPlayback(t *testing.T) {
	tp, clk, _ := newTestTape()

	test.ExpectedSuccess(t, tp.AttachData(testTAP(), ".tap"))

	tp.Start()
	test.Equate(t, tp.Playing(), true)

	// no time has passed: the level must not change however often it
	// is sampled
	b := tp.TapeBit()
	test.Equate(t, tp.TapeBit(), b)

	// cross the first pilot pulse: exactly one toggle
	clk.Advance(2200)
	test.Equate(t, tp.TapeBit(), b^0x40)

	// a long advance consumes many edges but leaves a consistent level
	clk.Advance(2168 * 100)
	tp.TapeBit()
	test.Equate(t, tp.TapeBit(), tp.TapeBit())
}

func TestPlaybackStopsAtBlockEnd(t *testing.T) {
	tp, clk, _ := newTestTape()

	// a single very short block
	test.ExpectedSuccess(t, tp.AttachData([]uint8{1, 0, 0xff}, ".tap"))

	tp.Start()
	clk.Advance(3220*2168 + 667 + 735 + 16*1710 + tape.Z80ClockHz + 1000)
	tp.TapeBit()

	test.Equate(t, tp.Playing(), false)
	test.Equate(t, tp.AtEnd(), true)
}

type edgeRecorder struct {
	edges []uint64
}

func (e *edgeRecorder) TapeEdge(t uint64) {
	e.edges = append(e.edges, t)
}

func TestEdgeListenerMonotonic(t *testing.T) {
	tp, clk, _ := newTestTape()

	test.ExpectedSuccess(t, tp.AttachData(testTAP(), ".tap"))

	rec := &edgeRecorder{}
	tp.AttachListener(rec)

	tp.Start()
	for i := 0; i < 1000; i++ {
		clk.Advance(997)
		clk.CrossFrame()
		tp.TapeBit()
	}

	test.Equate(t, len(rec.edges) > 0, true)
	for i := 1; i < len(rec.edges); i++ {
		if rec.edges[i] <= rec.edges[i-1] {
			t.Fatalf("edge timestamps not monotonic at %d", i)
		}
	}
}

func newTrapCPU(tp *tape.Tape, clk *clock.Clock, env *environment.Environment) (*cpu.CPU, *mockMem) {
	mem := newMockMem()
	mc := cpu.NewCPU(env, clk, mem, &mockPorts{})
	mc.Reset()
	return mc, mem
}

func TestROMTrap(t *testing.T) {
	tp, clk, env := newTestTape()

	// data block: flag 0xff, one payload byte 0xaa, CRC byte 0x55
	test.ExpectedSuccess(t, tp.AttachData([]uint8{3, 0, 0xff, 0xaa, 0x55}, ".tap"))

	mc, mem := newTrapCPU(tp, clk, env)
	mc.PC = 0x056b
	mc.IX = 0x8000
	mc.Reg.SetDE(0x0001)
	mc.SP = 0xfff0

	tp.Start()
	tp.ROMTrap(mc, mem)

	test.Equate(t, mc.PC, 0x05df)
	test.Equate(t, mc.Reg.F&registers.FlagC != 0, true)
	test.Equate(t, mem.internal[0x8000], 0xaa)
	test.Equate(t, mc.IX, 0x8001)
	test.Equate(t, mc.Reg.DE(), 0)
	test.Equate(t, mc.Reg.BC(), 0xb001)
	test.Equate(t, mc.Reg.H, 0)
}

func TestROMTrapEndOfTape(t *testing.T) {
	tp, clk, env := newTestTape()

	// the load asks for more payload than the tape holds
	test.ExpectedSuccess(t, tp.AttachData([]uint8{3, 0, 0xff, 0xaa, 0x55}, ".tap"))

	mc, _ := newTrapCPU(tp, clk, env)
	mem := newMockMem()
	mc.PC = 0x056b
	mc.IX = 0x8000
	mc.Reg.SetDE(0x4000)

	tp.Start()
	tp.ROMTrap(mc, mem)

	test.Equate(t, mc.PC, 0x05e2)
	test.Equate(t, tp.Playing(), false)
}

func TestDelayLoopAcceleration(t *testing.T) {
	tp, clk, env := newTestTape()
	test.ExpectedSuccess(t, tp.AttachData(testTAP(), ".tap"))
	tp.Start()

	mc, mem := newTrapCPU(tp, clk, env)
	mc.PC = 0x8000
	mc.Reg.A = 100

	// DEC A; JR NZ,-3
	mem.Write(0x8000, 0x3d)
	mem.Write(0x8001, 0x20)
	mem.Write(0x8002, 0xfd)

	t0 := clk.T
	tp.Accelerate(mc, mem)

	test.Equate(t, mc.Reg.A, 1)
	test.Equate(t, clk.T-t0, 99*16)
}

func TestEdgePollAcceleration(t *testing.T) {
	tp, clk, env := newTestTape()
	test.ExpectedSuccess(t, tp.AttachData(testTAP(), ".tap"))
	tp.Start()

	mc, mem := newTrapCPU(tp, clk, env)
	mc.PC = 0x8000
	mc.Reg.B = 0
	mc.Reg.C = tp.TapeBit() >> 1

	// the ROM LD-SAMPLE loop
	rom := []uint8{0x04, 0xc8, 0x3e, 0x7f, 0xdb, 0xfe, 0x1f, 0xd8, 0xa9, 0xe6, 0x20, 0x28, 0xf3}
	for i, b := range rom {
		mem.Write(0x8000+uint16(i), b)
	}

	t0 := clk.Now()
	tp.Accelerate(mc, mem)

	// the accelerator must have advanced time to an edge (or timed out)
	// and the loop exit condition must hold
	edge := (tp.TapeBit()>>1 ^ mc.Reg.C) & 0x20
	if edge == 0 && mc.Reg.B != 0xff {
		t.Errorf("accelerator stopped with neither exit condition true")
	}
	test.Equate(t, clk.Now() > t0, true)
}

func TestAutostart(t *testing.T) {
	tp, _, env := newTestTape()
	test.ExpectedSuccess(t, tp.AttachData(testTAP(), ".tap"))

	env.Prefs.TapeAutostart = true
	test.Equate(t, tp.Playing(), false)

	// the first ear read starts the tape rolling
	v := tp.Ear()
	test.Equate(t, tp.Playing(), true)
	test.Equate(t, v&0xbf, 0xbf)
}
