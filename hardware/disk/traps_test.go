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

import (
	"testing"

	"github.com/jetsetilly/gopherzx/environment"
	"github.com/jetsetilly/gopherzx/hardware/clock"
	"github.com/jetsetilly/gopherzx/hardware/cpu"
	"github.com/jetsetilly/gopherzx/hardware/memory"
	"github.com/jetsetilly/gopherzx/test"
)

// newTrapRig builds an idle controller and a CPU executing TR-DOS.
func newTrapRig() (*WD1793, *cpu.CPU, *memory.Memory) {
	env := environment.NewEnvironment(environment.MainEmulation, nil)
	env.Prefs.WD93NoDelay = true

	clk := clock.NewClock(71680, 0, 32)
	wd := NewWD1793(env, clk)

	d := wd.Drives[0]
	d.Allocate(80, 2)
	sectors := make([]Sector, 16)
	for i := range sectors {
		data := make([]uint8, 256)
		for j := range data {
			data[j] = uint8(j)
		}
		sectors[i] = Sector{C: 0, H: 0, R: uint8(i + 1), N: 1, Data: data}
	}
	d.FormatTrack(0, 0, sectors)

	mem := memory.NewMemory(env)
	trdos := make([]uint8, 0x4000)
	trdos[0x3dfd] = 0x3e
	trdos[0x3ea0] = 0x06
	trdos[0x3e01] = 0x0d
	trdos[0x3fed] = 0xa2
	trdos[0x3fd2] = 0xa3
	mem.LoadROM(memory.ROMTRDOS, trdos)
	mem.SetDOS(true)

	mc := cpu.NewCPU(env, clk, mem, nil)
	mc.Reset()
	mc.SP = 0xfff0

	return wd, mc, mem
}

func TestDelayTraps(t *testing.T) {
	wd, mc, mem := newTrapRig()

	// simulate being inside a CALLed delay routine
	mc.Push(0x2c00)
	mc.PC = 0x3dfd
	mc.Reg.A = 0x3e
	mc.Reg.C = 0x80
	wd.Trap(mc, mem)

	test.Equate(t, mc.PC, 0x2c00)
	test.Equate(t, mc.Reg.A, 0)
	test.Equate(t, mc.Reg.C, 0)

	mc.Push(0x2c10)
	mc.PC = 0x3ea0
	mc.Reg.B = 0x55
	wd.Trap(mc, mem)

	test.Equate(t, mc.PC, 0x2c10)
	test.Equate(t, mc.Reg.B, 0)
}

func TestPollTrap(t *testing.T) {
	wd, mc, mem := newTrapRig()

	mc.PC = 0x3e01
	mc.Reg.A = 0x80
	mc.Reg.C = 0x80
	wd.Trap(mc, mem)

	// the registers force the polling loop to exit; PC is untouched
	test.Equate(t, mc.PC, 0x3e01)
	test.Equate(t, mc.Reg.A, 1)
	test.Equate(t, mc.Reg.C, 1)
}

func TestBulkReadTrap(t *testing.T) {
	wd, mc, mem := newTrapRig()

	// start a sector read; the controller parks in READ with the first
	// byte pending
	wd.PortWrite(0x5f, 1)
	wd.PortWrite(0x1f, 0x80)
	test.Equate(t, wd.State() == Read, true)

	mc.PC = trapReadPC
	mc.Reg.SetHL(0x9000)
	mc.Reg.B = 0

	wd.Trap(mc, mem)

	test.Equate(t, mc.PC, uint16(trapReadPC+2))
	test.Equate(t, mc.Reg.HL(), 0x9100)
	test.Equate(t, wd.State() == Idle, true)
	test.Equate(t, wd.RQS()&rqsINTRQ, rqsINTRQ)

	// the whole sector arrived in guest memory in order
	for i := 0; i < 256; i++ {
		test.Equate(t, mem.Read(0x9000+uint16(i)), uint8(i))
	}
}

func TestBulkWriteTrap(t *testing.T) {
	wd, mc, mem := newTrapRig()

	// stage the source bytes in guest memory
	for i := 0; i < 256; i++ {
		mem.Write(0x9000+uint16(i), 0xa5)
	}

	wd.PortWrite(0x5f, 4)
	wd.PortWrite(0x1f, 0xa0)
	test.Equate(t, wd.State() == Write, true)

	mc.PC = trapWritePC
	mc.Reg.SetHL(0x9000)

	wd.Trap(mc, mem)

	test.Equate(t, mc.PC, uint16(trapWritePC+2))
	test.Equate(t, wd.State() == Idle, true)

	sec, ok := wd.Drives[0].ReadSector(0, 0, 4)
	test.Equate(t, ok, true)
	test.Equate(t, sec[0], 0xa5)
	test.Equate(t, sec[255], 0xa5)
}

func TestTrapVerifyByteGuards(t *testing.T) {
	wd, mc, mem := newTrapRig()

	// a patched ROM fails verification and the trap does nothing
	trdos := make([]uint8, 0x4000)
	mem.LoadROM(memory.ROMTRDOS, trdos)

	mc.PC = 0x3dfd
	mc.Reg.A = 0x77
	wd.Trap(mc, mem)

	test.Equate(t, mc.PC, 0x3dfd)
	test.Equate(t, mc.Reg.A, 0x77)
}
