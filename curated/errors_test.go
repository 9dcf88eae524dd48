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

package curated_test

import (
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/test"
)

func TestPatternMatching(t *testing.T) {
	e := curated.Errorf("test: %v", "detail")

	test.Equate(t, curated.IsAny(e), true)
	test.Equate(t, curated.Is(e, "test: %v"), true)
	test.Equate(t, curated.Is(e, "other: %v"), false)

	w := curated.Errorf("outer: %v", e)
	test.Equate(t, curated.Is(w, "test: %v"), false)
	test.Equate(t, curated.Has(w, "test: %v"), true)
}

func TestDeduplication(t *testing.T) {
	e := curated.Errorf("tape: %v", curated.Errorf("tape: %v", "bad signature"))
	test.Equate(t, e.Error(), "tape: bad signature")
}

func TestUncurated(t *testing.T) {
	e := errors.New("plain")
	test.Equate(t, curated.IsAny(e), false)
	test.Equate(t, curated.Is(e, "plain"), false)
	test.Equate(t, curated.Has(e, "plain"), false)
}

func TestHostErrorsStayInspectable(t *testing.T) {
	_, hostErr := os.ReadFile("a file that does not exist")
	test.ExpectedFailure(t, hostErr)

	e := curated.Errorf("tape: %v", hostErr)
	var pe *fs.PathError
	test.Equate(t, errors.As(e, &pe), true)
}
