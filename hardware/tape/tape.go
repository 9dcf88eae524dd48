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
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/environment"
	"github.com/jetsetilly/gopherzx/hardware/clock"
	"github.com/jetsetilly/gopherzx/logger"
)

// error patterns raised by the tape package.
const (
	// InvalidFormat is raised when a tape file fails to parse. The second
	// value is a description of the problem, often with an offset.
	InvalidFormat = "tape: invalid format: %v"
)

// Z80ClockHz is the nominal Z80 clock against which sample based formats
// (CSW, WAV, MP3) are converted to T-states.
const Z80ClockHz = 3500000

// earBit is the tape input bit on port 0xfe.
const earBit = 0x40

// EdgeListener implementations are told about every signal edge during
// playback. The sound collaborator attaches itself here; timestamps are
// absolute and strictly monotonic.
type EdgeListener interface {
	TapeEdge(t uint64)
}

// Tape is the cassette deck: a parsed pulse stream and the playback state
// machine that turns it into a signal level as a function of the clock.
type Tape struct {
	env *environment.Environment
	clk *clock.Clock

	Pulses *PulseStore

	// playback state. pos survives Stop() so that a multi-block tape can
	// resume between blocks
	playing    bool
	pos        int
	edgeChange uint64
	bit        uint8

	listener EdgeListener

	// description of the attached tape file, for the host UI
	Filename string
}

// NewTape is the preferred method of initialisation for the Tape type.
func NewTape(env *environment.Environment, clk *clock.Clock) *Tape {
	return &Tape{
		env:    env,
		clk:    clk,
		Pulses: NewPulseStore(),
	}
}

// AttachListener registers the sound collaborator.
func (tp *Tape) AttachListener(l EdgeListener) {
	tp.listener = l
}

// Attach parses the named tape file into the pulse store. Any previously
// attached tape is discarded, playing or not.
func (tp *Tape) Attach(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return curated.Errorf("tape: %v", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".wav" || ext == ".mp3" {
		err = tp.AttachAudio(filename)
		if err != nil {
			return err
		}
		tp.Filename = filename
		return nil
	}

	err = tp.AttachData(data, ext)
	if err != nil {
		return err
	}
	tp.Filename = filename
	return nil
}

// AttachData parses an in-memory tape image. Fingerprinting prefers the
// file signature over the extension hint.
func (tp *Tape) AttachData(data []uint8, ext string) error {
	tp.Eject()

	var err error
	switch {
	case bytes.HasPrefix(data, []uint8(tzxSignature)):
		err = tp.parseTZX(data)
	case bytes.HasPrefix(data, []uint8(cswSignature)):
		err = tp.parseCSW(data)
	case ext == ".tap" || ext == "":
		err = tp.parseTAP(data)
	default:
		err = curated.Errorf(InvalidFormat, "unrecognised tape image")
	}

	if err != nil {
		tp.Eject()
		return err
	}

	logger.Logf(tp.env, "tape", "%d blocks, %d pulses", len(tp.Pulses.Blocks()), tp.Pulses.Len())
	return nil
}

// Eject discards the attached tape.
func (tp *Tape) Eject() {
	tp.Stop()
	tp.Pulses.Reset()
	tp.pos = 0
	tp.Filename = ""
}

// Playing returns true while the tape is rolling.
func (tp *Tape) Playing() bool {
	return tp.playing
}

// AtEnd returns true if the play position has consumed the whole image.
func (tp *Tape) AtEnd() bool {
	return tp.pos >= tp.Pulses.Len()
}

// Start playing from the current position. Starting a tape at its end is a
// no-op.
func (tp *Tape) Start() {
	if tp.playing || tp.AtEnd() {
		return
	}

	d, ok := tp.nextPlayablePulse()
	if !ok {
		return
	}

	tp.playing = true
	tp.edgeChange = tp.clk.Now() + uint64(d)
}

// Stop the tape. The play position is retained; Start() resumes.
func (tp *Tape) Stop() {
	tp.playing = false
}

// Rewind the tape to the beginning.
func (tp *Tape) Rewind() {
	tp.Stop()
	tp.pos = 0
	tp.bit = 0
}

// nextPulse returns the next pulse duration in the image, including the
// end-of-block sentinel. ok is false at the end of the image.
func (tp *Tape) nextPulse() (uint32, bool) {
	if tp.AtEnd() {
		return 0, false
	}
	d := tp.Pulses.Duration(tp.pos)
	tp.pos++
	return d, true
}

// nextPlayablePulse is nextPulse with block sentinels skipped.
func (tp *Tape) nextPlayablePulse() (uint32, bool) {
	for {
		d, ok := tp.nextPulse()
		if !ok {
			return 0, false
		}
		if d != EndOfTape {
			return d, true
		}
	}
}

// TapeBit returns the current signal level (zero or the ear bit mask). The
// edge walk is lazy: nothing happens until the clock passes the time of
// the next scheduled edge.
func (tp *Tape) TapeBit() uint8 {
	if !tp.playing {
		return tp.bit
	}

	now := tp.clk.Now()
	for now >= tp.edgeChange {
		if tp.listener != nil {
			tp.listener.TapeEdge(tp.edgeChange)
		}
		tp.bit ^= earBit

		d, ok := tp.nextPulse()
		if !ok || d == EndOfTape {
			// the signal line sticks at its last level
			tp.Stop()
			return tp.bit
		}
		tp.edgeChange += uint64(d)
	}

	return tp.bit
}

// Ear returns the value contributed to a port 0xfe read by the tape
// input.
func (tp *Tape) Ear() uint8 {
	// autostart on the first ear read of an attached, stopped tape
	if !tp.playing && !tp.AtEnd() && tp.Pulses.Len() > 0 && tp.env.Prefs.TapeAutostart {
		tp.Start()
	}

	return 0xbf | (tp.TapeBit() & earBit)
}
