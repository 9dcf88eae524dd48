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

package logger

import (
	"fmt"
	"io"
)

// Permission implementations indicate whether the environment making a log
// request is allowed to create new log entries.
type Permission interface {
	AllowLogging() bool
}

type allow struct{}

func (_ allow) AllowLogging() bool {
	return true
}

// Allow indicates that the logging request should always be allowed.
var Allow Permission = allow{}

// only allowing one central log for the entire application. there's no need
// to allow more than one log.
var central *logger

// maximum number of entries in the central logger.
const maxCentral = 256

func init() {
	central = newLogger(maxCentral)
}

// Log adds an entry to the central logger.
func Log(perm Permission, tag, detail string) {
	if perm == Allow || perm.AllowLogging() {
		central.log(tag, detail)
	}
}

// Logf adds a formatted entry to the central logger.
func Logf(perm Permission, tag, detail string, args ...interface{}) {
	Log(perm, tag, fmt.Sprintf(detail, args...))
}

// Clear all entries from the central logger.
func Clear() {
	central.clear()
}

// Write the contents of the central logger to output.
func Write(output io.Writer) {
	central.write(output)
}

// Tail writes the last number of entries in the central logger to output.
func Tail(output io.Writer, number int) {
	central.tail(output, number)
}

// SetEcho prints entries to output as they are logged. A nil output stops
// echoing.
func SetEcho(output io.Writer, writeRecent bool) {
	central.echo = output
	if output != nil && writeRecent {
		central.write(output)
	}
}

// BorrowLog passes the central log entries to the provided function. No
// lock is taken.
func BorrowLog(f func([]Entry)) {
	f(central.entries)
}
