// Package filesystem is the single place track touches disk through.
//
// Config, logs and payload files all go through API so tests can run on an in-memory afero backend.
package filesystem

import "github.com/spf13/afero"

var backend = afero.Afero{Fs: afero.NewOsFs()}

func API() afero.Afero {
	return backend
}

// SetOsFs switches back to the real disk.
func SetOsFs() {
	Use(afero.NewOsFs())
}

// SetMemMapFs switches to a fresh in-memory filesystem.
func SetMemMapFs() {
	Use(afero.NewMemMapFs())
}

// Use switches to fs.
func Use(fs afero.Fs) {
	backend = afero.Afero{Fs: fs}
}
