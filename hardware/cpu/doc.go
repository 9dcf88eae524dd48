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

// Package cpu implements the Z80. It is a cycle counting implementation
// rather than a cycle stepped one: an instruction executes in one call
// and the shared clock advances by the documented T-state count, which
// is all the accuracy the rest of the machine needs.
//
// The post-instruction hook is the load-bearing feature of the package:
// the tape trap, the pattern accelerators and the disk traps all attach
// there and are free to rewrite registers, memory and the program
// counter between instructions.
package cpu
