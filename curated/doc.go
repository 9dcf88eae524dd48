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

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface.
//
// Curated errors are created with the Errorf() function. This is similar to
// the Errorf() function in the fmt package. It takes a formatting pattern,
// placeholder values and returns an error.
//
// The Is() function can be used to check whether an error was created with
// a specific pattern. The Has() function is similar but checks if a pattern
// occurs somewhere in the error chain:
//
//	e := curated.Errorf("tape: %v", curated.Errorf(tape.InvalidFormat, "tzx"))
//
//	curated.Is(e, "tape: %v")             // true
//	curated.Has(e, tape.InvalidFormat)    // true
//
// The IsAny() function answers whether the error was created by
// curated.Errorf() at all. We can think of the difference as being between
// 'expected' and 'unexpected' errors, depending on how we choose to handle
// the result of a function call.
//
// The Error() function implementation normalises the error chain so that it
// does not contain duplicate adjacent parts. The practical advantage is
// that it alleviates the problem of when and how to wrap errors: wrapping
// at every return site never produces "tape: tape: ..." chains.
//
// Sentinel patterns are stored as const strings in the package that raises
// them, suitably named and commented. Host errors (file system failures in
// particular) are passed as values to Errorf() and remain reachable through
// the standard library errors.Is() and errors.As() functions.
package curated
