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

// Package preferences defines and collates all the options recognised by
// the emulation core. Values are owned by the hardware.Spectrum instance
// and shared through the environment package. Reading and writing of host
// configuration files is the responsibility of the embedding application.
package preferences

// NumDrives is the number of drives addressable by the Beta Disk interface.
const NumDrives = 4

// Preferences defines all the preference values used by the emulation core.
type Preferences struct {
	// Model48 selects 48K behaviour where the emulated model matters:
	// TZX "stop the tape if in 48K mode" blocks honour it.
	Model48 bool

	// tape
	//
	// TapeTraps enables the ROM loader trap at 0x056b. TapeAutostart
	// starts the tape on the first ear-port read after attach. The
	// pattern-based tape accelerators run only when SoundEnabled is
	// false; an emulation that is mixing sound must hear every edge.
	TapeTraps     bool
	TapeAutostart bool
	SoundEnabled  bool

	// beta disk
	TRDOSPresent    bool
	TRDOSTraps      bool
	TRDOSInterleave int
	WD93NoDelay     bool
	WriteProtect    [NumDrives]bool

	// frame geometry. TPI is the interrupt overshoot tolerance; it equals
	// FrameLen unless the embedding application needs otherwise.
	FrameLen int
	TLine    int
	Paper    int
	IntPos   int
	IntLen   int
	TPI      int
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type.
func NewPreferences() *Preferences {
	p := &Preferences{}
	p.SetDefaults()
	return p
}

// SetDefaults reverts all preferences to the documented default values.
// The frame geometry defaults describe a 50Hz Pentagon frame.
func (p *Preferences) SetDefaults() {
	p.Model48 = false

	p.TapeTraps = true
	p.TapeAutostart = true
	p.SoundEnabled = false

	p.TRDOSPresent = true
	p.TRDOSTraps = true
	p.TRDOSInterleave = 1
	p.WD93NoDelay = false
	for i := range p.WriteProtect {
		p.WriteProtect[i] = false
	}

	p.FrameLen = 71680
	p.TLine = 224
	p.Paper = 17989
	p.IntPos = 0
	p.IntLen = 32
	p.TPI = p.FrameLen
}
