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

// Package environment provides context for an emulation. It collates the
// preferences of the emulation and a label distinguishing the emulation
// from any other that might be running alongside it (the General Sound
// coprocessor for instance, which runs a second Z80 against its own clock).
package environment

import (
	"github.com/jetsetilly/gopherzx/hardware/preferences"
)

// Label is used to name the environment.
type Label string

// MainEmulation is the label used for the main emulation.
const MainEmulation = Label("")

// Environment is used to provide context for an emulation. Particularly
// useful when using multiple emulations.
type Environment struct {
	Label Label

	// the emulation preferences
	Prefs *preferences.Preferences
}

// NewEnvironment is the preferred method of initialisation for the
// Environment type.
//
// The prefs argument can be nil, in which case a new Preferences instance
// is created with default values. Providing a non-nil value allows the
// preferences of more than one emulation to be synchronised.
func NewEnvironment(label Label, prefs *preferences.Preferences) *Environment {
	if prefs == nil {
		prefs = preferences.NewPreferences()
	}

	return &Environment{
		Label: label,
		Prefs: prefs,
	}
}

// IsEmulation checks the emulation label and returns true if it matches.
func (env *Environment) IsEmulation(label Label) bool {
	return env.Label == label
}

// AllowLogging implements the logger.Permission interface. Only the main
// emulation writes to the central log.
func (env *Environment) AllowLogging() bool {
	return env.IsEmulation(MainEmulation)
}
