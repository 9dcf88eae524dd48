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

// Package ports decodes the I/O port map: the ULA port 0xfe, the 0x7ffd
// and 0x1ffd paging registers and, while the CPU is in DOS mode, the Beta
// Disk controller registers. The keyboard matrix and the video border are
// external collaborators reached through small interfaces.
package ports

import (
	"github.com/jetsetilly/gopherzx/environment"
	"github.com/jetsetilly/gopherzx/hardware/disk"
	"github.com/jetsetilly/gopherzx/hardware/memory"
	"github.com/jetsetilly/gopherzx/hardware/tape"
)

// KeyboardReader is the interface to the keyboard collaborator. The high
// byte of the port address selects the half-rows; the low five bits of
// the result are the key states, active low.
type KeyboardReader interface {
	ReadKeyboard(highByte uint8) uint8
}

// BorderWriter is the interface to the video collaborator.
type BorderWriter interface {
	SetBorder(colour uint8)
}

// Ports is the I/O port decoder.
type Ports struct {
	env *environment.Environment

	mem  *memory.Memory
	tape *tape.Tape
	wd   *disk.WD1793

	keyboard KeyboardReader
	border   BorderWriter

	// last value written to port 0xfe
	FE uint8
}

// NewPorts is the preferred method of initialisation for the Ports type.
func NewPorts(env *environment.Environment, mem *memory.Memory, tp *tape.Tape, wd *disk.WD1793) *Ports {
	return &Ports{
		env:  env,
		mem:  mem,
		tape: tp,
		wd:   wd,
	}
}

// AttachKeyboard registers the keyboard collaborator.
func (p *Ports) AttachKeyboard(k KeyboardReader) {
	p.keyboard = k
}

// AttachBorder registers the video collaborator.
func (p *Ports) AttachBorder(b BorderWriter) {
	p.border = b
}

// betaPort returns true if the port belongs to the Beta Disk interface.
// The interface only answers while its ROM is paged in.
func (p *Ports) betaPort(port uint16) bool {
	if !p.env.Prefs.TRDOSPresent || !p.mem.InDOS() {
		return false
	}
	return port&0x1f == 0x1f
}

// In implements the cpu.Ports interface.
func (p *Ports) In(port uint16) uint8 {
	if p.betaPort(port) {
		return p.wd.PortRead(port)
	}

	if port&0x0001 == 0 {
		// ULA: tape ear on bit 6, keyboard rows on bits 0 to 4
		v := p.tape.Ear()
		kb := uint8(0x1f)
		if p.keyboard != nil {
			kb = p.keyboard.ReadKeyboard(uint8(port>>8)) & 0x1f
		}
		return v & (0xe0 | kb)
	}

	// unattached ports float high
	return 0xff
}

// Out implements the cpu.Ports interface.
func (p *Ports) Out(port uint16, data uint8) {
	if p.betaPort(port) {
		p.wd.PortWrite(port, data)
		return
	}

	if port&0x0001 == 0 {
		p.FE = data
		if p.border != nil {
			p.border.SetBorder(data & 0x07)
		}
		return
	}

	// 0x7ffd is decoded on address bits 1 and 15 only
	if port&0x8002 == 0 {
		p.mem.SetPort7FFD(data)
		return
	}

	// 0x1ffd: +3 secondary paging
	if port&0xf002 == 0x1000 {
		p.mem.SetPort1FFD(data)
	}
}
