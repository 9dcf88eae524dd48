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

package hardware

import (
	"path/filepath"
	"strings"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/environment"
	"github.com/jetsetilly/gopherzx/hardware/clock"
	"github.com/jetsetilly/gopherzx/hardware/cpu"
	"github.com/jetsetilly/gopherzx/hardware/disk"
	"github.com/jetsetilly/gopherzx/hardware/disk/image"
	"github.com/jetsetilly/gopherzx/hardware/memory"
	"github.com/jetsetilly/gopherzx/hardware/ports"
	"github.com/jetsetilly/gopherzx/hardware/preferences"
	"github.com/jetsetilly/gopherzx/hardware/tape"
	"github.com/jetsetilly/gopherzx/logger"
	"github.com/jetsetilly/gopherzx/snapshot"
)

// Spectrum is the main container for the emulated components of the
// machine. It owns every component; components refer to one another only
// through what they are handed here.
type Spectrum struct {
	Env   *environment.Environment
	Clock *clock.Clock
	CPU   *cpu.CPU
	Mem   *memory.Memory
	Ports *ports.Ports
	Tape  *tape.Tape
	Disk  *disk.WD1793

	// Border is the last border colour written, for the video
	// collaborator
	Border uint8

	// host requests latched mid-frame and honoured at the next
	// instruction boundary
	latchedReset bool
	latchedStop  bool
}

// NewSpectrum creates a new Spectrum and everything associated with the
// hardware.
func NewSpectrum(prefs *preferences.Preferences) *Spectrum {
	env := environment.NewEnvironment(environment.MainEmulation, prefs)

	spec := &Spectrum{Env: env}
	spec.Clock = clock.NewClock(env.Prefs.FrameLen, env.Prefs.IntPos, env.Prefs.IntLen)
	spec.Clock.TPI = env.Prefs.TPI
	spec.Mem = memory.NewMemory(env)
	spec.Tape = tape.NewTape(env, spec.Clock)
	spec.Disk = disk.NewWD1793(env, spec.Clock)
	spec.Ports = ports.NewPorts(env, spec.Mem, spec.Tape, spec.Disk)
	spec.CPU = cpu.NewCPU(env, spec.Clock, spec.Mem, spec.Ports)

	spec.CPU.AttachHook(spec.instructionEnd)

	return spec
}

// SetBorder implements the ports.BorderWriter interface on the Spectrum
// itself, for hosts that only want to poll the colour.
func (spec *Spectrum) SetBorder(colour uint8) {
	spec.Border = colour
}

// instructionEnd is the hook run after every instruction: DOS paging
// follows the program counter, then the trap and acceleration subsystems
// get their chance, then the disk state machine catches up with the
// clock.
func (spec *Spectrum) instructionEnd(mc *cpu.CPU) {
	prefs := spec.Env.Prefs

	// TR-DOS pages itself in when the program counter enters the 0x3dxx
	// vector region of the 48K ROM, and out on leaving ROM space
	if prefs.TRDOSPresent {
		if spec.Mem.InDOS() {
			if mc.PC >= 0x4000 {
				spec.Mem.SetDOS(false)
			}
		} else if mc.PC&0xff00 == 0x3d00 && spec.Mem.P7FFD&0x10 != 0 {
			spec.Mem.SetDOS(true)
		}
	}

	if spec.Tape.Playing() {
		if prefs.TapeTraps && mc.PC == 0x056b && !spec.Mem.InDOS() {
			spec.Tape.ROMTrap(mc, spec.Mem)
		} else if !prefs.SoundEnabled {
			spec.Tape.Accelerate(mc, spec.Mem)
		}
	}

	if prefs.TRDOSPresent && spec.Mem.InDOS() {
		if prefs.TRDOSTraps {
			spec.Disk.Trap(mc, spec.Mem)
		}
		spec.Disk.Process()
	}
}

// Reset emulates the reset switch: CPU and paging return to power-on
// state, the clock restarts from zero, the tape keeps its position.
func (spec *Spectrum) Reset() {
	spec.CPU.Reset()
	spec.Mem.Reset()
	spec.Disk.Reset()
	spec.Clock.Reset()
	spec.latchedReset = false
}

// Step the emulation by one CPU instruction, honouring any latched host
// request first.
func (spec *Spectrum) Step() {
	if spec.latchedReset {
		spec.Reset()
	}
	if spec.latchedStop {
		spec.latchedStop = false
		spec.Tape.Stop()
	}

	spec.CPU.ExecuteInstruction()
}

// RunForFrames runs the emulation for the given number of frames.
func (spec *Spectrum) RunForFrames(numFrames int) {
	end := spec.Clock.Frame + numFrames
	for spec.Clock.Frame < end {
		spec.Step()
	}
}

// RequestReset asks for a reset at the next instruction boundary. Safe to
// call from the host at any time the emulation is not concurrently
// stepping.
func (spec *Spectrum) RequestReset() {
	spec.latchedReset = true
}

// RequestStopTape asks for the tape to stop at the next instruction
// boundary.
func (spec *Spectrum) RequestStopTape() {
	spec.latchedStop = true
}

// Attach loads the named file into the appropriate subsystem, dispatching
// on filename extension: tape images and audio to the tape deck, disk
// images to drive A, snapshots straight into the machine state.
func (spec *Spectrum) Attach(filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tap", ".tzx", ".csw", ".wav", ".mp3":
		return spec.Tape.Attach(filename)

	case ".trd", ".scl", ".fdi", ".td0", ".udi", ".isd", ".pro", ".hob", ".$b", ".$c", ".$d", ".$#":
		err := image.Attach(spec.Disk.Drives[0], filename, spec.Env.Prefs.TRDOSInterleave)
		if err != nil {
			return err
		}
		logger.Logf(spec.Env, "disk", "%s in drive A", filepath.Base(filename))
		return nil

	case ".sna", ".z80", ".sp":
		res, err := snapshot.Load(filename, spec.CPU, spec.Mem)
		if err != nil {
			return err
		}
		spec.Border = res.Border
		spec.Mem.SetDOS(res.TRDOS)
		logger.Logf(spec.Env, "snapshot", "restored %s", filepath.Base(filename))
		return nil
	}

	return curated.Errorf("hardware: don't know how to attach %s", filepath.Base(filename))
}
