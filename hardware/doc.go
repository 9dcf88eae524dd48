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

// Package hardware assembles the emulated machine. The Spectrum type
// owns every component - CPU, memory, clock, port decoder, tape deck and
// Beta Disk interface - and wires the post-instruction hook chain that
// the trap and acceleration subsystems hang from.
//
// The emulation is strictly single threaded: the CPU drives a tight
// loop and every other component advances synchronously from it,
// observing a consistent clock. Host requests that arrive mid-frame
// (reset, stop the tape) are latched and honoured at the next
// instruction boundary.
package hardware
