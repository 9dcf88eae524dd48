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

// Package modalflag is a wrapper for the flag package in the Go standard
// library. It provides a convenient method of handling program modes
// (sometimes called sub-modes): distinct branches of program
// functionality selected by a keyword argument ahead of the flags, as in
//
//	gopherzx run game.tzx
//	gopherzx performance -frames 1000 game.trd
//
// Modes are added with AddSubMode() and flags with the Add* functions.
// Parse() consumes the next mode keyword or, for the innermost mode, the
// flags and trailing arguments.
package modalflag

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ParseResult is returned from Parse().
type ParseResult int

// values returned from Parse().
const (
	ParseError ParseResult = iota
	ParseContinue
	ParseHelp
)

// Modes brings together the mode tree and the flags of the current mode.
type Modes struct {
	// Output is where help text and error messages are written.
	Output io.Writer

	args []string
	path []string

	subModes []string
	flags    *flag.FlagSet
}

// NewArgs initialises the Modes instance with the program arguments
// (without the program name).
func (md *Modes) NewArgs(args []string) {
	md.args = args
	md.path = []string{}
}

// NewMode begins flag definition for the current mode level, discarding
// any sub-mode list from the previous level.
func (md *Modes) NewMode() {
	md.subModes = []string{}
	md.flags = flag.NewFlagSet(md.String(), flag.ContinueOnError)
	md.flags.SetOutput(md.Output)
}

// AddSubMode registers a keyword selecting a branch of program
// functionality beneath the current mode.
func (md *Modes) AddSubMode(name string) {
	md.subModes = append(md.subModes, strings.ToUpper(name))
}

// AddBool adds a boolean flag to the current mode.
func (md *Modes) AddBool(name string, value bool, usage string) *bool {
	return md.flags.Bool(name, value, usage)
}

// AddInt adds an integer flag to the current mode.
func (md *Modes) AddInt(name string, value int, usage string) *int {
	return md.flags.Int(name, value, usage)
}

// AddString adds a string flag to the current mode.
func (md *Modes) AddString(name string, value string, usage string) *string {
	return md.flags.String(name, value, usage)
}

// Parse the remaining arguments against the current mode: if sub-modes
// have been registered the next argument selects one; otherwise the flags
// are parsed and the remainder becomes the trailing arguments.
func (md *Modes) Parse() (ParseResult, error) {
	if len(md.subModes) > 0 && len(md.args) > 0 && !strings.HasPrefix(md.args[0], "-") {
		candidate := strings.ToUpper(md.args[0])
		for _, m := range md.subModes {
			if m == candidate {
				md.path = append(md.path, candidate)
				md.args = md.args[1:]
				return ParseContinue, nil
			}
		}
		return ParseError, fmt.Errorf("%s is not a mode of %s", md.args[0], md.String())
	}

	err := md.flags.Parse(md.args)
	if err != nil {
		if err == flag.ErrHelp {
			if len(md.subModes) > 0 {
				fmt.Fprintf(md.Output, "available modes: %s\n", strings.Join(md.subModes, ", "))
			}
			return ParseHelp, nil
		}
		return ParseError, err
	}

	md.args = md.flags.Args()
	return ParseContinue, nil
}

// Mode returns the most recently selected mode keyword.
func (md *Modes) Mode() string {
	if len(md.path) == 0 {
		return ""
	}
	return md.path[len(md.path)-1]
}

// RemainingArgs returns the arguments left over after Parse().
func (md *Modes) RemainingArgs() []string {
	return md.args
}

// String returns the mode path, suitable for help text.
func (md *Modes) String() string {
	if len(md.path) == 0 {
		return "gopherzx"
	}
	return fmt.Sprintf("gopherzx %s", strings.ToLower(strings.Join(md.path, " ")))
}
