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

// Package tape implements the cassette subsystem. Every input format -
// TAP, TZX, CSW, and audio recordings via the soundload path - decodes to
// the same representation: a bounded table of pulse durations and a byte
// stream indexing it. Playback is then a single lazy walk of that stream
// against the clock, whoever produced it.
//
// Loading from tape at real speed takes minutes, so the package carries
// two accelerators. The ROM trap replaces the 48K ROM's LD-BYTES routine
// wholesale when the program counter reaches it. The pattern accelerators
// recognise the tight delay and edge-polling loops that custom loaders
// spend their time in and replay them against the pulse stream directly.
package tape
