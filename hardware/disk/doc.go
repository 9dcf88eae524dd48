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

// Package disk implements the Beta Disk interface: a WD1793 floppy
// controller in front of up to four drives. Each drive holds its disk as
// raw tracks - the byte stream the head would see, address marks flagged
// in a side bitmap - so the controller logic never cares which image
// format a disk came from, and copy protection schemes that rely on
// irregular sector layouts survive.
//
// The controller is a state machine advanced against the shared clock:
// commands take as long as they would on hardware (seeks step at the
// programmed rate, sectors arrive when the disk has rotated to them)
// unless the no-delay preference collapses the waiting. Errors the real
// chip would raise - missing sectors, bad CRCs, write protection - are
// status register bits for the guest to find, never host errors.
//
// The sub-package image parses disk image files into drives.
package disk
