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

// Package registers implements the Z80 register file. The eight bit
// registers are stored individually; the pair accessors combine them in
// the usual way (B is the high byte of BC, etc.)
//
// The R register needs care: the low seven bits count instruction fetches
// but the high bit is only ever set by LD R,A. The two parts are stored
// separately and combined by the R() function.
package registers

// Flag bits of the F register.
const (
	FlagC uint8 = 0x01
	FlagN uint8 = 0x02
	FlagP uint8 = 0x04
	Flag3 uint8 = 0x08
	FlagH uint8 = 0x10
	Flag5 uint8 = 0x20
	FlagZ uint8 = 0x40
	FlagS uint8 = 0x80
)

// File is the Z80 register file. The alternate set is exposed as the Alt
// field of the CPU rather than here; EX and EXX swap values between two
// File instances.
type File struct {
	A uint8
	F uint8
	B uint8
	C uint8
	D uint8
	E uint8
	H uint8
	L uint8
}

// BC returns the BC register pair.
func (r *File) BC() uint16 {
	return uint16(r.B)<<8 | uint16(r.C)
}

// SetBC sets the BC register pair.
func (r *File) SetBC(v uint16) {
	r.B = uint8(v >> 8)
	r.C = uint8(v)
}

// DE returns the DE register pair.
func (r *File) DE() uint16 {
	return uint16(r.D)<<8 | uint16(r.E)
}

// SetDE sets the DE register pair.
func (r *File) SetDE(v uint16) {
	r.D = uint8(v >> 8)
	r.E = uint8(v)
}

// HL returns the HL register pair.
func (r *File) HL() uint16 {
	return uint16(r.H)<<8 | uint16(r.L)
}

// SetHL sets the HL register pair.
func (r *File) SetHL(v uint16) {
	r.H = uint8(v >> 8)
	r.L = uint8(v)
}

// AF returns the AF register pair.
func (r *File) AF() uint16 {
	return uint16(r.A)<<8 | uint16(r.F)
}

// SetAF sets the AF register pair.
func (r *File) SetAF(v uint16) {
	r.A = uint8(v >> 8)
	r.F = uint8(v)
}

// Refresh implements the R register. RLow counts the low seven bits and is
// incremented on every opcode fetch. R7 holds the high bit, which survives
// the counting and changes only with LD R,A.
type Refresh struct {
	RLow uint8
	R7   uint8
}

// Inc advances the refresh counter by n fetches. The high bit is
// unaffected.
func (r *Refresh) Inc(n uint8) {
	r.RLow += n
}

// R returns the value seen by LD A,R.
func (r *Refresh) R() uint8 {
	return (r.R7 & 0x80) | (r.RLow & 0x7f)
}

// Set the R register, as LD R,A does.
func (r *Refresh) Set(v uint8) {
	r.RLow = v
	r.R7 = v
}
