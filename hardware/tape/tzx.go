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
	"fmt"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/logger"
)

const tzxSignature = "ZXTape!\x1a"

// tzxBlock is one indexed block in a TZX file: its id and the bounds of
// its body (excluding the id byte).
type tzxBlock struct {
	id   uint8
	body []uint8
	off  int
}

// tzxReader is a bounds-checked cursor over a block body.
type tzxReader struct {
	data []uint8
	o    int
	err  error
	off  int // file offset of data[0], for error reporting
}

func (r *tzxReader) fail() {
	if r.err == nil {
		r.err = curated.Errorf(InvalidFormat, fmt.Sprintf("tzx: truncated block at offset %d", r.off+r.o))
	}
}

func (r *tzxReader) u8() uint8 {
	if r.o+1 > len(r.data) {
		r.fail()
		return 0
	}
	v := r.data[r.o]
	r.o++
	return v
}

func (r *tzxReader) u16() uint16 {
	if r.o+2 > len(r.data) {
		r.fail()
		return 0
	}
	v := uint16(r.data[r.o]) | uint16(r.data[r.o+1])<<8
	r.o += 2
	return v
}

func (r *tzxReader) u24() int {
	if r.o+3 > len(r.data) {
		r.fail()
		return 0
	}
	v := int(r.data[r.o]) | int(r.data[r.o+1])<<8 | int(r.data[r.o+2])<<16
	r.o += 3
	return v
}

func (r *tzxReader) bytes(n int) []uint8 {
	if n < 0 || r.o+n > len(r.data) {
		r.fail()
		return nil
	}
	v := r.data[r.o : r.o+n]
	r.o += n
	return v
}

// tzxBodyLen returns the length of a block body given its id and the
// bytes following the id byte. Unknown ids follow the TZX extension rule:
// a 32-bit length field leads the body.
func tzxBodyLen(id uint8, data []uint8) (int, error) {
	need := func(n int) (int, error) {
		if n > len(data) {
			return 0, curated.Errorf(InvalidFormat, fmt.Sprintf("tzx: truncated block id %#02x", id))
		}
		return n, nil
	}

	u16at := func(o int) int {
		return int(data[o]) | int(data[o+1])<<8
	}
	u24at := func(o int) int {
		return u16at(o) | int(data[o+2])<<16
	}

	switch id {
	case 0x10:
		if _, err := need(4); err != nil {
			return 0, err
		}
		return need(4 + u16at(2))
	case 0x11:
		if _, err := need(18); err != nil {
			return 0, err
		}
		return need(18 + u24at(15))
	case 0x12:
		return need(4)
	case 0x13:
		if _, err := need(1); err != nil {
			return 0, err
		}
		return need(1 + int(data[0])*2)
	case 0x14:
		if _, err := need(10); err != nil {
			return 0, err
		}
		return need(10 + u24at(7))
	case 0x15:
		if _, err := need(8); err != nil {
			return 0, err
		}
		return need(8 + u24at(5))
	case 0x20, 0x23, 0x24:
		return need(2)
	case 0x21, 0x30:
		if _, err := need(1); err != nil {
			return 0, err
		}
		return need(1 + int(data[0]))
	case 0x22, 0x25, 0x27:
		return 0, nil
	case 0x26:
		if _, err := need(2); err != nil {
			return 0, err
		}
		return need(2 + u16at(0)*2)
	case 0x28, 0x32:
		if _, err := need(2); err != nil {
			return 0, err
		}
		return need(2 + u16at(0))
	case 0x31:
		if _, err := need(2); err != nil {
			return 0, err
		}
		return need(2 + int(data[1]))
	case 0x33:
		if _, err := need(1); err != nil {
			return 0, err
		}
		return need(1 + int(data[0])*3)
	case 0x34:
		return need(8)
	case 0x35:
		if _, err := need(20); err != nil {
			return 0, err
		}
		return need(20 + u24at(16) + int(data[19])<<24)
	case 0x40:
		if _, err := need(4); err != nil {
			return 0, err
		}
		return need(4 + u24at(1))
	case 0x5a:
		return need(9)
	}

	// extension rule
	if _, err := need(4); err != nil {
		return 0, err
	}
	return need(4 + u24at(0) + int(data[3])<<24)
}

// parseTZX decodes a TZX file. The control flow blocks (jump, loop, call)
// make this a small interpreter over the indexed block list rather than a
// single pass.
func (tp *Tape) parseTZX(data []uint8) error {
	if len(data) < len(tzxSignature)+2 {
		return curated.Errorf(InvalidFormat, "tzx: truncated header")
	}
	major := data[8]
	minor := data[9]
	logger.Logf(tp.env, "tape", "tzx version %d.%02d", major, minor)

	// index pass
	var blocks []tzxBlock
	o := len(tzxSignature) + 2
	for o < len(data) {
		id := data[o]
		l, err := tzxBodyLen(id, data[o+1:])
		if err != nil {
			return err
		}
		blocks = append(blocks, tzxBlock{id: id, body: data[o+1 : o+1+l], off: o})
		o += 1 + l
	}

	// interpretation pass
	type loopFrame struct {
		start int
		count int
	}
	var loops []loopFrame

	type callFrame struct {
		block int
		next  int
	}
	var calls []callFrame

	// a guard against jump cycles: no honest tape executes more blocks
	// than this
	budget := len(blocks) * 1024
	if budget < 65536 {
		budget = 65536
	}

	for i := 0; i < len(blocks); i++ {
		if budget--; budget < 0 {
			return curated.Errorf(InvalidFormat, "tzx: control flow does not terminate")
		}

		b := blocks[i]
		r := &tzxReader{data: b.body, off: b.off + 1}

		switch b.id {
		case 0x10: // standard speed data
			pause := int(r.u16())
			l := int(r.u16())
			blk := r.bytes(l)
			if r.err != nil {
				return r.err
			}
			tp.Pulses.makeROMBlock(blk, pause)
			tp.Pulses.CloseBlock(tapDescription(blk), blk)

		case 0x11: // turbo speed data
			pilot := uint32(r.u16())
			sync1 := uint32(r.u16())
			sync2 := uint32(r.u16())
			zero := uint32(r.u16())
			one := uint32(r.u16())
			pilotLen := int(r.u16())
			usedBits := int(r.u8())
			pause := int(r.u16())
			l := r.u24()
			blk := r.bytes(l)
			if r.err != nil {
				return r.err
			}
			tp.Pulses.makeBlock(blk, pilot, sync1, sync2, zero, one, pilotLen, usedBits, pause)
			tp.Pulses.CloseBlock(fmt.Sprintf("turbo block (%d bytes)", l), blk)

		case 0x12: // pure tone
			d := uint32(r.u16())
			n := int(r.u16())
			if r.err != nil {
				return r.err
			}
			if d == 0 {
				return curated.Errorf(InvalidFormat, fmt.Sprintf("tzx: zero pulse length at offset %d", b.off))
			}
			tp.Pulses.AppendN(d, n)

		case 0x13: // pulse sequence
			n := int(r.u8())
			for j := 0; j < n; j++ {
				d := uint32(r.u16())
				if r.err != nil {
					return r.err
				}
				tp.Pulses.Append(d)
			}

		case 0x14: // pure data
			zero := uint32(r.u16())
			one := uint32(r.u16())
			usedBits := int(r.u8())
			pause := int(r.u16())
			l := r.u24()
			blk := r.bytes(l)
			if r.err != nil {
				return r.err
			}
			tp.Pulses.makeBlock(blk, 0, 0, 0, zero, one, 0, usedBits, pause)
			tp.Pulses.CloseBlock(fmt.Sprintf("pure data (%d bytes)", l), blk)

		case 0x15: // direct recording
			period := uint32(r.u16())
			pause := int(r.u16())
			usedBits := int(r.u8())
			l := r.u24()
			samples := r.bytes(l)
			if r.err != nil {
				return r.err
			}
			tp.directRecording(samples, period, usedBits, pause)

		case 0x20: // pause, or stop the tape when zero
			pause := int(r.u16())
			if pause == 0 {
				tp.Pulses.CloseBlock("stop the tape", nil)
			} else {
				tp.Pulses.Append(msToTStates(pause))
			}

		case 0x21: // group start
			l := int(r.u8())
			name := r.bytes(l)
			if r.err != nil {
				return r.err
			}
			logger.Logf(tp.env, "tape", "group: %s", string(name))

		case 0x22: // group end

		case 0x23: // jump to block
			delta := int(int16(r.u16()))
			if r.err != nil {
				return r.err
			}
			i += delta - 1

		case 0x24: // loop start
			count := int(r.u16())
			if r.err != nil {
				return r.err
			}
			loops = append(loops, loopFrame{start: i, count: count})

		case 0x25: // loop end
			if len(loops) == 0 {
				return curated.Errorf(InvalidFormat, fmt.Sprintf("tzx: loop end without start at offset %d", b.off))
			}
			f := &loops[len(loops)-1]
			f.count--
			if f.count > 0 {
				i = f.start
			} else {
				loops = loops[:len(loops)-1]
			}

		case 0x26: // call sequence
			n := int(r.u16())
			if n > 0 {
				delta := int(int16(r.u16()))
				if r.err != nil {
					return r.err
				}
				calls = append(calls, callFrame{block: i, next: 1})
				i += delta - 1
			}

		case 0x27: // return from sequence
			if len(calls) == 0 {
				return curated.Errorf(InvalidFormat, fmt.Sprintf("tzx: return without call at offset %d", b.off))
			}
			f := &calls[len(calls)-1]
			cb := blocks[f.block]
			cr := &tzxReader{data: cb.body, off: cb.off + 1}
			n := int(cr.u16())
			if f.next < n {
				// take the next call in the sequence
				for j := 0; j < f.next; j++ {
					cr.u16()
				}
				delta := int(int16(cr.u16()))
				if cr.err != nil {
					return cr.err
				}
				f.next++
				i = f.block + delta - 1
			} else {
				// sequence exhausted: continue after the call block
				i = f.block
				calls = calls[:len(calls)-1]
			}

		case 0x28: // select block, metadata only

		case 0x2a: // stop the tape if in 48K mode
			if tp.env.Prefs.Model48 {
				tp.Pulses.CloseBlock("stop the tape (48K)", nil)
			}

		case 0x30, 0x31, 0x32, 0x33, 0x34, 0x35: // text and archive metadata

		case 0x40: // embedded snapshot
			// delegating mid-stream to a snapshot loader cannot be
			// expressed as pulses
			if tp.Pulses.Len() > 0 {
				return curated.Errorf(InvalidFormat, fmt.Sprintf("tzx: snapshot block mid stream at offset %d", b.off))
			}
			logger.Log(tp.env, "tape", "ignoring embedded snapshot block")

		case 0x5a: // glue

		default:
			logger.Logf(tp.env, "tape", "skipping unsupported tzx block %#02x", b.id)
		}
	}

	// a tape that ends without an explicit stop still terminates
	if len(tp.Pulses.Blocks()) == 0 || tp.Pulses.blockStart < tp.Pulses.Len() {
		tp.Pulses.CloseBlock("end of tape", nil)
	}

	return nil
}

// directRecording converts raw samples at the given T-state period into
// pulses. An edge is emitted wherever consecutive samples differ.
func (tp *Tape) directRecording(samples []uint8, period uint32, usedBits int, pauseMs int) {
	if len(samples) == 0 {
		return
	}

	nbits := (len(samples)-1)*8 + usedBits

	bitAt := func(i int) uint8 {
		return samples[i>>3] >> (7 - uint(i&7)) & 1
	}

	run := uint32(1)
	prev := bitAt(0)
	for i := 1; i < nbits; i++ {
		b := bitAt(i)
		if b^prev != 0 {
			tp.Pulses.Append(run * period)
			run = 0
			prev = b
		}
		run++
	}
	tp.Pulses.Append(run * period)

	if pauseMs > 0 {
		tp.Pulses.Append(msToTStates(pauseMs))
	}
	tp.Pulses.CloseBlock(fmt.Sprintf("direct recording (%d samples)", nbits), nil)
}
