// layout.go
package keg

import "path/filepath"

const (
	// CellarDir holds one directory per installed version
	CellarDir = "Cellar"

	// OptDir holds a stable link to the current version of each formula
	OptDir = "opt"
)

// Layout locates one formula version under an install prefix
type Layout struct {
	Prefix  string
	Name    string
	Version string
}

// Keg is the versioned install directory
func (l Layout) Keg() string {
	return filepath.Join(l.Prefix, CellarDir, l.Name, l.Version)
}

// PkgShare is the formula's private share directory inside the keg
func (l Layout) PkgShare() string {
	return filepath.Join(l.Keg(), "share", l.Name)
}

// Opt is the version independent link to the keg
func (l Layout) Opt() string {
	return filepath.Join(l.Prefix, OptDir, l.Name)
}

// OptPkgShare is PkgShare reached through Opt. Paths written into the
// user's shell configuration use this one so upgrades do not break them.
func (l Layout) OptPkgShare() string {
	return filepath.Join(l.Opt(), "share", l.Name)
}
