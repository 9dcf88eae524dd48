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
	"github.com/jetsetilly/gopherzx/environment"
	"github.com/jetsetilly/gopherzx/hardware/clock"
	"github.com/jetsetilly/gopherzx/hardware/preferences"
	"github.com/jetsetilly/gopherzx/logger"
)

// State enumerates the WD1793 state machine.
type State int

// The states of the controller. Wait parks the machine until the clock
// reaches the scheduled time, then continues at the state recorded
// alongside it.
const (
	Idle State = iota
	Wait
	DelayBeforeCmd
	CmdRW
	FoundNextID
	RdSec
	Read
	WrSec
	Write
	WrTrack
	WrTrackData
	Type1Cmd
	Step
	SeekStart
	Seek
	Verify
	Reset
)

// status register bits. the meaning of bits 1 and 2 differs between Type I
// and Type II/III commands, per the datasheet.
const (
	stBusy       = 0x01
	stIndex      = 0x02 // type I
	stDRQ        = 0x02 // type II/III
	stTrack00    = 0x04 // type I
	stLostData   = 0x04 // type II/III
	stCRCError   = 0x08
	stSeekError  = 0x10 // type I
	stNotFound   = 0x10 // type II/III
	stHeadLoaded = 0x20 // type I
	stWriteProt  = 0x40
	stNotReady   = 0x80
)

// request bits as exposed on the system port.
const (
	rqsDRQ   = 0x40
	rqsINTRQ = 0x80
)

// timing constants. a double density disk turns at 300rpm and carries
// TrackLen bytes per revolution.
const (
	byteTime    = 112 // T-states per disk byte
	indexPeriod = TrackLen * byteTime

	// how long the index pulse is visible in the type I status byte
	indexPulse = 4 * byteTime

	// motor spin-down, roughly fifteen revolutions
	motorTimeout = 15 * indexPeriod

	// rotations to scan for a matching ID before giving up
	idamRetries = 5
)

// step rates selected by the low two bits of a Type I command, in
// milliseconds.
var stepRates = [4]int{6, 12, 20, 30}

const tStatesPerMs = 3500

// WD1793 emulates the Beta Disk interface's floppy controller.
type WD1793 struct {
	env *environment.Environment
	clk *clock.Clock

	Drives [preferences.NumDrives]*Drive

	// selected drive and side
	drive int
	side  int

	state State

	// continuation for Wait, and the time at which it resumes
	state2 State
	next   uint64

	// registers
	cmd    uint8
	track  uint8
	sector uint8
	data   uint8
	status uint8

	// DRQ/INTRQ as visible on the system port
	rqs uint8

	// step direction, +1 towards the hub
	direction int

	// transfer state
	rwptr int
	rwlen int

	// bookkeeping for the current command
	idamPos   int
	scanPos   int
	rotations int
	damPos    int

	// write track interpretation
	wtSyncRun int
	wtCRCFrom int

	// last value written to the system port
	system uint8
}

// NewWD1793 is the preferred method of initialisation for the WD1793
// type.
func NewWD1793(env *environment.Environment, clk *clock.Clock) *WD1793 {
	wd := &WD1793{
		env:       env,
		clk:       clk,
		direction: 1,
	}
	for i := range wd.Drives {
		wd.Drives[i] = NewDrive()
	}
	return wd
}

// SelectedDrive returns the currently selected drive.
func (wd *WD1793) SelectedDrive() *Drive {
	return wd.Drives[wd.drive]
}

// State returns the current state of the controller state machine.
func (wd *WD1793) State() State {
	return wd.state
}

// RQS returns the request bits (DRQ/INTRQ).
func (wd *WD1793) RQS() uint8 {
	return wd.rqs
}

// RWLen returns the number of bytes left in the current transfer,
// excluding any byte pending in the data register.
func (wd *WD1793) RWLen() int {
	return wd.rwlen
}

// Reset puts the controller into its power-on state.
func (wd *WD1793) Reset() {
	wd.state = Idle
	wd.status = 0
	wd.rqs = 0
	wd.cmd = 0
	wd.track = 0
	wd.sector = 0
	wd.data = 0
	wd.direction = 1
}

// writeProtected answers for the selected drive from the per-drive
// preference.
func (wd *WD1793) writeProtected() bool {
	return wd.env.Prefs.WriteProtect[wd.drive]
}

// ready is the drive-ready condition: disk in and motor running.
func (wd *WD1793) ready() bool {
	d := wd.SelectedDrive()
	return d.Inserted() && wd.clk.Now() < d.Motor
}

// delay schedules the continuation of the state machine n T-states from
// now. With the no-delay preference all delays collapse to nothing.
func (wd *WD1793) delay(n int, then State) {
	if wd.env.Prefs.WD93NoDelay {
		wd.state = then
		return
	}
	wd.state2 = then
	wd.next = wd.clk.Now() + uint64(n)
	wd.state = Wait
}

// spinUp restarts the motor timeout.
func (wd *WD1793) spinUp() {
	wd.SelectedDrive().Motor = wd.clk.Now() + motorTimeout
}

// completed ends the current command.
func (wd *WD1793) completed() {
	wd.status &^= stBusy | stDRQ
	wd.rqs = rqsINTRQ
	wd.state = Idle
}

// rotationalPos returns the byte under the head right now.
func (wd *WD1793) rotationalPos() int {
	return int(wd.clk.Now()/byteTime) % TrackLen
}

// currentTrack returns the track under the head of the selected drive.
func (wd *WD1793) currentTrack() *Track {
	d := wd.SelectedDrive()
	return d.Track(d.Cylinder, wd.side)
}

// Process advances the state machine as far as the clock allows. The run
// loop calls this at instruction boundaries; port accesses call it
// implicitly.
func (wd *WD1793) Process() {
	wd.process()
}

// process advances the state machine as far as the clock allows. It is
// called before every port access and by the run loop at instruction
// boundaries.
func (wd *WD1793) process() {
	for {
		switch wd.state {
		case Idle:
			return

		case Wait:
			if wd.clk.Now() < wd.next {
				return
			}
			wd.state = wd.state2

		case Reset:
			wd.Reset()
			return

		case DelayBeforeCmd:
			// the E bit requests a head settling delay before a Type
			// II/III command engages
			n := 0
			if wd.cmd&0x04 != 0 {
				n = 15 * tStatesPerMs
			}
			wd.delay(n, CmdRW)

		case CmdRW:
			if !wd.ready() {
				wd.status |= stNotReady
				wd.completed()
				return
			}

			if wd.cmd&0xe0 == 0xa0 || wd.cmd&0xf0 == 0xf0 {
				// write sector and write track respect the write
				// protection
				if wd.writeProtected() {
					wd.status |= stWriteProt
					wd.completed()
					return
				}
			}

			switch {
			case wd.cmd&0xf0 == 0xf0: // write track
				wd.rwptr = 0
				wd.rwlen = TrackLen
				wd.wtSyncRun = 0
				wd.wtCRCFrom = -1
				wd.rqs = rqsDRQ
				wd.status |= stDRQ
				wd.state = WrTrack
				return
			case wd.cmd&0xf0 == 0xe0: // read track
				t := wd.currentTrack()
				if t == nil || len(t.Data) == 0 {
					wd.status |= stNotFound
					wd.completed()
					return
				}
				wd.rwptr = 0
				wd.rwlen = len(t.Data)
				wd.loadReadByte()
				wd.state = Read
				return
			default:
				wd.rotations = 0
				wd.scanPos = wd.rotationalPos()
				wd.state = FoundNextID
			}

		case FoundNextID:
			t := wd.currentTrack()
			if t == nil {
				wd.status |= stNotFound
				wd.completed()
				return
			}

			p, wrapped := t.FindIDAM(wd.scanPos)
			if p < 0 {
				wd.status |= stNotFound
				wd.completed()
				return
			}
			if wrapped {
				wd.rotations++
				if wd.rotations >= idamRetries {
					wd.status |= stNotFound
					wd.completed()
					return
				}
			}
			wd.idamPos = p
			wd.scanPos = p + 1

			// let the disk turn to the mark before inspecting it
			ahead := p - wd.rotationalPos()
			if ahead < 0 {
				ahead += TrackLen
			}
			wd.delay(ahead*byteTime, wd.inspectID())

		case RdSec:
			t := wd.currentTrack()
			dp := t.FindDAM(wd.idamPos)
			if dp < 0 {
				// no data field; keep looking for another copy of the ID
				wd.state = FoundNextID
				continue
			}
			wd.damPos = dp
			wd.rwptr = dp + 1
			wd.rwlen = 128 << (t.Data[wd.idamPos+4] & 3)
			if wd.rwptr+wd.rwlen > len(t.Data) {
				wd.status |= stNotFound
				wd.completed()
				return
			}
			wd.loadReadByte()
			wd.state = Read
			return

		case Read:
			// byte handshaking happens in PortRead
			return

		case WrSec:
			t := wd.currentTrack()
			dp := t.FindDAM(wd.idamPos)
			if dp < 0 {
				wd.state = FoundNextID
				continue
			}
			wd.damPos = dp
			wd.rwptr = dp + 1
			wd.rwlen = 128 << (t.Data[wd.idamPos+4] & 3)
			if wd.rwptr+wd.rwlen > len(t.Data) {
				wd.status |= stNotFound
				wd.completed()
				return
			}
			wd.rqs = rqsDRQ
			wd.status |= stDRQ
			wd.state = Write
			return

		case Write, WrTrack, WrTrackData:
			// byte handshaking happens in PortWrite
			return

		case Type1Cmd:
			wd.status = stBusy
			if wd.cmd&0x08 != 0 {
				wd.status |= stHeadLoaded
			}
			wd.rqs = 0
			wd.spinUp()

			switch wd.cmd >> 4 {
			case 0x0: // restore
				wd.track = 0xff
				wd.data = 0
				wd.state = SeekStart
			case 0x1: // seek
				wd.state = SeekStart
			case 0x2, 0x3: // step
				wd.state = Step
			case 0x4, 0x5: // step in
				wd.direction = 1
				wd.state = Step
			case 0x6, 0x7: // step out
				wd.direction = -1
				wd.state = Step
			}

		case SeekStart:
			if wd.data == wd.track {
				wd.state = Verify
				continue
			}
			if wd.data > wd.track {
				wd.direction = 1
			} else {
				wd.direction = -1
			}
			wd.state = Seek

		case Seek:
			if wd.track == wd.data {
				wd.state = Verify
				continue
			}
			wd.stepHead(true)
			wd.delay(stepRates[wd.cmd&0x03]*tStatesPerMs, Seek)

		case Step:
			wd.stepHead(wd.cmd&0x10 != 0)
			wd.delay(stepRates[wd.cmd&0x03]*tStatesPerMs, Verify)

		case Verify:
			d := wd.SelectedDrive()
			if d.Cylinder == 0 && wd.cmd>>4 == 0 {
				// restore completes at the physical stop whatever the
				// register arithmetic says
				wd.track = 0
			}

			if wd.cmd&0x04 == 0 {
				wd.completed()
				return
			}

			if !wd.verifyTrack() {
				wd.status |= stSeekError
			}
			wd.completed()
			return
		}
	}
}

// stepHead moves the head one cylinder, updating the track register when
// asked to.
func (wd *WD1793) stepHead(update bool) {
	d := wd.SelectedDrive()
	d.Cylinder += wd.direction
	if d.Cylinder < 0 {
		d.Cylinder = 0
	}
	max := d.Cyls
	if max == 0 {
		max = 86
	}
	if d.Cylinder >= max {
		d.Cylinder = max - 1
	}
	if update {
		wd.track += uint8(wd.direction)
	}
}

// verifyTrack scans the track under the head for any ID whose cylinder
// field matches the track register.
func (wd *WD1793) verifyTrack() bool {
	t := wd.currentTrack()
	if t == nil {
		return false
	}
	pos := 0
	for i := 0; i < idamRetries*2; i++ {
		p, _ := t.FindIDAM(pos)
		if p < 0 {
			return false
		}
		if t.Data[p+1] == wd.track {
			return true
		}
		if p+1 <= pos {
			return false
		}
		pos = p + 1
	}
	return false
}

// inspectID decides what happens when the ID mark scheduled by
// FoundNextID arrives under the head. It returns the state to continue
// at.
func (wd *WD1793) inspectID() State {
	t := wd.currentTrack()
	p := wd.idamPos

	if wd.cmd&0xf0 == 0xc0 {
		// read address: any ID will do. the six ID bytes flow through
		// the data register and the sector register receives the
		// cylinder
		wd.rwptr = p + 1
		wd.rwlen = 6
		wd.sector = t.Data[p+1]
		wd.loadReadByte()
		return Read
	}

	// read/write sector: the C and R fields must match the registers
	if t.Data[p+1] != wd.track || t.Data[p+3] != wd.sector {
		return FoundNextID
	}

	// ID field CRC
	crc := markCRC(idam, t.Data[p+1:p+5])
	if t.Data[p+5] != uint8(crc>>8) || t.Data[p+6] != uint8(crc) {
		wd.status |= stCRCError
		return FoundNextID
	}
	wd.status &^= stCRCError

	if wd.cmd&0xe0 == 0xa0 {
		return WrSec
	}
	return RdSec
}

// loadReadByte moves the next byte of the transfer into the data register
// and raises DRQ.
func (wd *WD1793) loadReadByte() {
	t := wd.currentTrack()
	wd.data = t.Data[wd.rwptr]
	wd.rwptr++
	wd.rwlen--
	wd.rqs |= rqsDRQ
	wd.status |= stDRQ
}

// finishRead completes a read sector/address/track command, verifying the
// data CRC for sector reads.
func (wd *WD1793) finishRead() {
	if wd.cmd&0xf0 == 0x80 || wd.cmd&0xf0 == 0x90 {
		t := wd.currentTrack()
		l := 128 << (t.Data[wd.idamPos+4] & 3)
		if !t.DataCRCOK(wd.damPos, l) {
			wd.status |= stCRCError
		}

		if wd.cmd&0x10 != 0 {
			// multi-sector: move to the next sector and carry on
			wd.sector++
			wd.rotations = 0
			wd.state = FoundNextID
			wd.process()
			return
		}
	}
	wd.completed()
}

// PortRead services a CPU read of one of the Beta Disk ports. The low
// byte of the port address selects the register.
func (wd *WD1793) PortRead(port uint16) uint8 {
	wd.process()

	switch port & 0xff {
	case 0x1f:
		wd.rqs &^= rqsINTRQ
		return wd.statusByte()

	case 0x3f:
		return wd.track

	case 0x5f:
		return wd.sector

	case 0x7f:
		v := wd.data
		if wd.state == Read && wd.rqs&rqsDRQ != 0 {
			wd.rqs &^= rqsDRQ
			wd.status &^= stDRQ
			if wd.rwlen > 0 {
				wd.loadReadByte()
			} else {
				wd.finishRead()
			}
		}
		return v

	case 0xff:
		return wd.rqs | 0x3f
	}

	return 0xff
}

// statusByte composes the status register as visible right now. Type I
// status carries the mechanical bits; Type II/III carries the transfer
// bits.
func (wd *WD1793) statusByte() uint8 {
	st := wd.status

	if !wd.ready() {
		st |= stNotReady
	}

	if wd.cmd&0x80 == 0 || wd.cmd&0xf0 == 0xd0 {
		// type I or force interrupt
		st &^= stIndex | stTrack00 | stWriteProt
		if wd.writeProtected() {
			st |= stWriteProt
		}
		if wd.SelectedDrive().Cylinder == 0 {
			st |= stTrack00
		}
		if wd.ready() && wd.clk.Now()%indexPeriod < indexPulse {
			st |= stIndex
		}
	}

	return st
}

// PortWrite services a CPU write to one of the Beta Disk ports.
func (wd *WD1793) PortWrite(port uint16, v uint8) {
	wd.process()

	switch port & 0xff {
	case 0x1f:
		wd.command(v)

	case 0x3f:
		if wd.status&stBusy == 0 {
			wd.track = v
		}

	case 0x5f:
		if wd.status&stBusy == 0 {
			wd.sector = v
		}

	case 0x7f:
		wd.data = v
		wd.dataWritten()

	case 0xff:
		wd.system = v
		wd.drive = int(v & 0x03)
		wd.side = int(^v>>4) & 0x01
		if v&0x04 == 0 {
			// reset line held low
			wd.state = Reset
			wd.process()
		}
	}
}

// command latches a new command. The register is writable only when the
// controller is not busy, or when the new command is a force interrupt.
func (wd *WD1793) command(v uint8) {
	if wd.status&stBusy != 0 && v&0xf0 != 0xd0 {
		return
	}

	wd.cmd = v
	wd.rqs = 0

	if v&0xf0 == 0xd0 {
		// force interrupt terminates whatever is in progress
		wd.state = Idle
		wd.status &^= stBusy | stDRQ
		if v&0x08 != 0 {
			wd.rqs = rqsINTRQ
		}
		return
	}

	wd.status = stBusy
	wd.spinUp()

	if v&0x80 == 0 {
		wd.state = Type1Cmd
	} else {
		logger.Logf(wd.env, "wd1793", "cmd %#02x trk %d sec %d drive %d", v, wd.track, wd.sector, wd.drive)
		wd.state = DelayBeforeCmd
	}
	wd.process()
}

// dataWritten handles a byte arriving in the data register during a write
// command.
func (wd *WD1793) dataWritten() {
	if wd.rqs&rqsDRQ == 0 {
		return
	}

	switch wd.state {
	case Write:
		t := wd.currentTrack()
		t.Data[wd.rwptr] = wd.data
		wd.rwptr++
		wd.rwlen--
		if wd.rwlen == 0 {
			l := 128 << (t.Data[wd.idamPos+4] & 3)
			t.RewriteDataCRC(wd.damPos, l)
			wd.SelectedDrive().OpType |= OpSectorDirty
			wd.rqs &^= rqsDRQ
			wd.status &^= stDRQ

			if wd.cmd&0x10 != 0 {
				wd.sector++
				wd.rotations = 0
				wd.state = FoundNextID
				wd.process()
				return
			}
			wd.completed()
			return
		}
		// hold DRQ up for the next byte

	case WrTrack:
		wd.state = WrTrackData
		fallthrough

	case WrTrackData:
		wd.writeTrackByte(wd.data)
		if wd.rwlen == 0 {
			wd.SelectedDrive().OpType |= OpTrackFormatted | OpSectorDirty
			wd.rqs &^= rqsDRQ
			wd.status &^= stDRQ
			wd.completed()
		}
	}
}

// writeTrackByte interprets one byte of a format stream. The WD1793
// treats a handful of values specially when writing a track: 0xf5 writes
// a sync byte, 0xfe and 0xfb write address marks, 0xf7 writes the CRC
// accumulated since the last mark.
func (wd *WD1793) writeTrackByte(v uint8) {
	t := wd.currentTrack()
	if t == nil || wd.rwptr >= len(t.Data) {
		wd.rwlen = 0
		return
	}

	switch v {
	case 0xf5:
		t.Data[wd.rwptr] = 0xa1
		wd.wtSyncRun++
	case 0xf7:
		from := wd.wtCRCFrom
		if from >= 0 && from <= wd.rwptr {
			crc := crc16(0xffff, t.Data[from:wd.rwptr])
			t.Data[wd.rwptr] = uint8(crc >> 8)
			wd.rwptr++
			wd.rwlen--
			if wd.rwlen == 0 || wd.rwptr >= len(t.Data) {
				return
			}
			t.Data[wd.rwptr] = uint8(crc)
		}
		wd.wtCRCFrom = -1
		wd.wtSyncRun = 0
	default:
		t.Data[wd.rwptr] = v
		if (v == idam || v == dam) && wd.wtSyncRun >= 3 {
			t.SetMark(wd.rwptr)
			wd.wtCRCFrom = wd.rwptr - 3
		}
		wd.wtSyncRun = 0
	}

	wd.rwptr++
	wd.rwlen--
}
