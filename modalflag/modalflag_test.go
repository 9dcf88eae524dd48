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

package modalflag_test

import (
	"strings"
	"testing"

	"github.com/jetsetilly/gopherzx/modalflag"
	"github.com/jetsetilly/gopherzx/test"
)

func TestModeSelection(t *testing.T) {
	md := &modalflag.Modes{Output: &strings.Builder{}}
	md.NewArgs([]string{"run", "game.tzx"})
	md.NewMode()
	md.AddSubMode("RUN")
	md.AddSubMode("PERFORMANCE")

	p, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, p == modalflag.ParseContinue, true)
	test.Equate(t, md.Mode(), "RUN")

	md.NewMode()
	frames := md.AddInt("frames", 0, "")
	p, err = md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, p == modalflag.ParseContinue, true)
	test.Equate(t, *frames, 0)
	test.Equate(t, len(md.RemainingArgs()), 1)
	test.Equate(t, md.RemainingArgs()[0], "game.tzx")
}

func TestFlagsInMode(t *testing.T) {
	md := &modalflag.Modes{Output: &strings.Builder{}}
	md.NewArgs([]string{"performance", "-frames", "100", "game.trd"})
	md.NewMode()
	md.AddSubMode("RUN")
	md.AddSubMode("PERFORMANCE")

	_, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, md.Mode(), "PERFORMANCE")

	md.NewMode()
	frames := md.AddInt("frames", 500, "")
	_, err = md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, *frames, 100)
	test.Equate(t, md.RemainingArgs()[0], "game.trd")
}

func TestUnknownMode(t *testing.T) {
	md := &modalflag.Modes{Output: &strings.Builder{}}
	md.NewArgs([]string{"frobnicate"})
	md.NewMode()
	md.AddSubMode("RUN")

	_, err := md.Parse()
	test.ExpectedFailure(t, err)
}
