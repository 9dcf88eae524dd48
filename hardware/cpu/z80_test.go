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

package cpu_test

import (
	"testing"

	"github.com/jetsetilly/gopherzx/environment"
	"github.com/jetsetilly/gopherzx/hardware/clock"
	"github.com/jetsetilly/gopherzx/hardware/cpu"
	"github.com/jetsetilly/gopherzx/hardware/cpu/registers"
	"github.com/jetsetilly/gopherzx/test"
)

type mockMem struct {
	internal []uint8
}

func newMockMem() *mockMem {
	return &mockMem{
		internal: make([]uint8, 0x10000),
	}
}

func (mem *mockMem) putInstructions(origin uint16, bytes ...uint8) uint16 {
	for i, b := range bytes {
		mem.Write(uint16(i)+origin, b)
	}
	return origin + uint16(len(bytes))
}

func (mem *mockMem) assert(t *testing.T, address uint16, value uint8) {
	t.Helper()
	if mem.internal[address] != value {
		t.Errorf("memory assertion failed (%#02x  - wanted %#02x at address %#04x)", mem.internal[address], value, address)
	}
}

func (mem *mockMem) Read(address uint16) uint8 {
	return mem.internal[address]
}

func (mem *mockMem) Write(address uint16, data uint8) {
	mem.internal[address] = data
}

type mockPorts struct {
	in      uint8
	lastOut uint8
}

func (p *mockPorts) In(port uint16) uint8 {
	return p.in
}

func (p *mockPorts) Out(port uint16, data uint8) {
	p.lastOut = data
}

func newTestCPU() (*cpu.CPU, *mockMem, *mockPorts, *clock.Clock) {
	env := environment.NewEnvironment(environment.MainEmulation, nil)
	clk := clock.NewClock(71680, 0, 32)
	mem := newMockMem()
	ports := &mockPorts{in: 0xff}
	mc := cpu.NewCPU(env, clk, mem, ports)
	mc.Reset()
	mc.PC = 0x8000
	return mc, mem, ports, clk
}

func step(mc *cpu.CPU, n int) {
	for i := 0; i < n; i++ {
		mc.ExecuteInstruction()
	}
}

func TestLoadAndALU(t *testing.T) {
	mc, mem, _, clk := newTestCPU()

	// LD A,0x21; LD B,0x43; ADD A,B
	mem.putInstructions(0x8000, 0x3e, 0x21, 0x06, 0x43, 0x80)
	step(mc, 3)

	test.Equate(t, mc.Reg.A, 0x64)
	test.Equate(t, mc.PC, 0x8005)
	test.Equate(t, clk.T, 7+7+4)

	// flags: no carry, no zero, no sign
	test.Equate(t, mc.Reg.F&registers.FlagC, 0)
	test.Equate(t, mc.Reg.F&registers.FlagZ, 0)
	test.Equate(t, mc.Reg.F&registers.FlagS, 0)
}

func TestCarryAndOverflow(t *testing.T) {
	mc, mem, _, _ := newTestCPU()

	// LD A,0x7f; ADD A,1 overflows into the sign bit
	mem.putInstructions(0x8000, 0x3e, 0x7f, 0xc6, 0x01)
	step(mc, 2)

	test.Equate(t, mc.Reg.A, 0x80)
	test.Equate(t, mc.Reg.F&registers.FlagP != 0, true)
	test.Equate(t, mc.Reg.F&registers.FlagS != 0, true)
	test.Equate(t, mc.Reg.F&registers.FlagH != 0, true)

	// SUB 0x80 takes it back with carry and overflow clear: both operands
	// share a sign, so the subtraction cannot overflow
	mem.putInstructions(0x8004, 0xd6, 0x80)
	step(mc, 1)
	test.Equate(t, mc.Reg.A, 0x00)
	test.Equate(t, mc.Reg.F&registers.FlagZ != 0, true)
	test.Equate(t, mc.Reg.F&registers.FlagP != 0, false)
}

func TestMemoryOperands(t *testing.T) {
	mc, mem, _, _ := newTestCPU()

	// LD HL,0x9000; LD (HL),0x5a; INC (HL); LD A,(HL)
	mem.putInstructions(0x8000, 0x21, 0x00, 0x90, 0x36, 0x5a, 0x34, 0x7e)
	step(mc, 4)

	mem.assert(t, 0x9000, 0x5b)
	test.Equate(t, mc.Reg.A, 0x5b)
}

func TestDJNZCycles(t *testing.T) {
	mc, mem, _, clk := newTestCPU()

	// LD B,3; DJNZ $
	mem.putInstructions(0x8000, 0x06, 0x03, 0x10, 0xfe)
	step(mc, 1)
	t0 := clk.T

	// two taken branches at 13 cycles
	step(mc, 2)
	test.Equate(t, clk.T-t0, 26)
	test.Equate(t, mc.PC, 0x8002)

	// the exit iteration costs 8
	step(mc, 1)
	test.Equate(t, clk.T-t0, 34)
	test.Equate(t, mc.PC, 0x8004)
	test.Equate(t, mc.Reg.B, 0)
}

func TestStackAndCall(t *testing.T) {
	mc, mem, _, _ := newTestCPU()
	mc.SP = 0xfff0

	// CALL 0x9000 ... at 0x9000: LD A,0x12; RET
	mem.putInstructions(0x8000, 0xcd, 0x00, 0x90)
	mem.putInstructions(0x9000, 0x3e, 0x12, 0xc9)

	step(mc, 1)
	test.Equate(t, mc.PC, 0x9000)
	test.Equate(t, mc.SP, 0xffee)
	mem.assert(t, 0xffee, 0x03)
	mem.assert(t, 0xffef, 0x80)

	step(mc, 2)
	test.Equate(t, mc.PC, 0x8003)
	test.Equate(t, mc.Reg.A, 0x12)
	test.Equate(t, mc.SP, 0xfff0)
}

func TestExchangeGroup(t *testing.T) {
	mc, mem, _, _ := newTestCPU()

	mc.Reg.SetHL(0x1234)
	mc.Reg.SetDE(0x5678)
	mc.Alt.SetBC(0x9abc)

	// EX DE,HL; EXX
	mem.putInstructions(0x8000, 0xeb, 0xd9)
	step(mc, 1)
	test.Equate(t, mc.Reg.HL(), 0x5678)
	test.Equate(t, mc.Reg.DE(), 0x1234)

	step(mc, 1)
	test.Equate(t, mc.Reg.BC(), 0x9abc)
}

func TestIndexedAddressing(t *testing.T) {
	mc, mem, _, clk := newTestCPU()

	mc.IX = 0x9000
	mem.Write(0x9005, 0x77)

	// LD A,(IX+5); DD prefix ALU: ADD A,(IX+5)
	mem.putInstructions(0x8000, 0xdd, 0x7e, 0x05, 0xdd, 0x86, 0x05)
	t0 := clk.T
	step(mc, 1)
	test.Equate(t, mc.Reg.A, 0x77)
	test.Equate(t, clk.T-t0, 19)

	step(mc, 1)
	test.Equate(t, mc.Reg.A, 0xee)
}

func TestIndexedBitOps(t *testing.T) {
	mc, mem, _, _ := newTestCPU()

	mc.IY = 0x9000
	mem.Write(0x9002, 0x00)

	// SET 3,(IY+2)
	mem.putInstructions(0x8000, 0xfd, 0xcb, 0x02, 0xde)
	step(mc, 1)
	mem.assert(t, 0x9002, 0x08)

	// BIT 3,(IY+2)
	mem.putInstructions(0x8004, 0xfd, 0xcb, 0x02, 0x5e)
	step(mc, 1)
	test.Equate(t, mc.Reg.F&registers.FlagZ, 0)
}

func TestBlockTransfer(t *testing.T) {
	mc, mem, _, clk := newTestCPU()

	for i := uint16(0); i < 4; i++ {
		mem.Write(0x9000+i, uint8(0x10+i))
	}
	mc.Reg.SetHL(0x9000)
	mc.Reg.SetDE(0xa000)
	mc.Reg.SetBC(0x0004)

	// LDIR
	mem.putInstructions(0x8000, 0xed, 0xb0)
	t0 := clk.T

	// three repeating iterations and a final one
	step(mc, 4)

	test.Equate(t, mc.PC, 0x8002)
	test.Equate(t, mc.Reg.BC(), 0)
	test.Equate(t, clk.T-t0, 21*3+16)
	for i := uint16(0); i < 4; i++ {
		mem.assert(t, 0xa000+i, uint8(0x10+i))
	}
}

func TestRefreshRegister(t *testing.T) {
	mc, mem, _, _ := newTestCPU()

	// LD A,0x80; LD R,A then run NOPs: the high bit must survive the
	// counting
	mem.putInstructions(0x8000, 0x3e, 0x80, 0xed, 0x4f, 0x00, 0x00, 0x00)
	step(mc, 5)

	test.Equate(t, mc.Refresh.R()&0x80, 0x80)
	test.Equate(t, mc.Refresh.R()&0x7f, 3)
}

func TestInterruptIM1(t *testing.T) {
	mc, mem, _, clk := newTestCPU()
	mc.SP = 0xfff0

	// IM 1; EI; then NOPs
	mem.putInstructions(0x8000, 0xed, 0x56, 0xfb, 0x00, 0x00)
	step(mc, 2)
	test.Equate(t, mc.IFF1, true)

	// the interrupt window is at the start of frame; rewind the clock
	// into it by crossing a frame exactly
	clk.Advance(clk.FrameLen - clk.T)
	clk.CrossFrame()
	test.Equate(t, clk.IntActive(), true)

	// the instruction after EI never accepts; the one after that does
	step(mc, 1)
	test.Equate(t, mc.PC, 0x8004)

	// the accepting step also executes the first instruction of the
	// service routine (a NOP here)
	step(mc, 1)
	test.Equate(t, mc.PC, 0x0039)
	test.Equate(t, mc.IFF1, false)
	mem.assert(t, 0xffee, 0x04)
	mem.assert(t, 0xffef, 0x80)
}

func TestHalt(t *testing.T) {
	mc, mem, _, clk := newTestCPU()

	mem.putInstructions(0x8000, 0x76)
	step(mc, 3)

	test.Equate(t, mc.Halted, true)
	test.Equate(t, mc.PC, 0x8000)
	test.Equate(t, clk.T, 12)
}

func TestInOut(t *testing.T) {
	mc, mem, ports, _ := newTestCPU()
	ports.in = 0xbf

	// IN A,(0xfe); OUT (0xfe),A
	mem.putInstructions(0x8000, 0xdb, 0xfe, 0xd3, 0xfe)
	step(mc, 2)

	test.Equate(t, mc.Reg.A, 0xbf)
	test.Equate(t, ports.lastOut, 0xbf)
}
