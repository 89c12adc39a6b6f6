// types.go
package formula

// Formula describes one release of a packaged script: where it comes
// from, how to check it, and how it gets wired into the user's shell.
type Formula struct {
	Name        string `yaml:"name" toml:"name"`
	Description string `yaml:"desc" toml:"desc"`
	Homepage    string `yaml:"homepage" toml:"homepage"`
	URL         string `yaml:"url" toml:"url"`
	SHA256      string `yaml:"sha256" toml:"sha256"`
	License     string `yaml:"license" toml:"license"`
	Version     string `yaml:"version" toml:"version"`

	// Script is the file taken from the source tree (default: <name>.zsh)
	Script string `yaml:"script,omitempty" toml:"script,omitempty"`

	// Bootstrap selects the revision that ships install.zsh. When false
	// the user edits their startup file by hand.
	Bootstrap bool `yaml:"bootstrap" toml:"bootstrap"`

	// Caveats overrides the generated post-install notes
	Caveats string `yaml:"caveats,omitempty" toml:"caveats,omitempty"`
}

// ScriptName returns the installed script's file name
func (f *Formula) ScriptName() string {
	if f.Script != "" {
		return f.Script
	}
	return f.Name + ".zsh"
}

// Qcd returns the built-in qcd formula
func Qcd() *Formula {
	return &Formula{
		Name:        QcdName,
		Description: "Quick directory bookmarks for zsh",
		Homepage:    "https://github.com/adamzafir/qcd",
		URL:         QcdURL,
		SHA256:      QcdSHA256,
		License:     "MIT",
		Version:     QcdVersion,
		Script:      DefaultScript,
		Bootstrap:   true,
	}
}
