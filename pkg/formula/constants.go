// constants.go
package formula

const (
	// QcdName is the name of the built-in formula
	QcdName = "qcd"

	// QcdVersion is the released tag the built-in formula pins
	QcdVersion = "0.1.0"

	// QcdURL is the source archive for the pinned tag
	QcdURL = "https://github.com/adamzafir/qcd/archive/refs/tags/v0.1.0.tar.gz"

	// QcdSHA256 is the content hash of QcdURL
	QcdSHA256 = "017d1ab56bfbc8fba7546ffa8292820de2b29d0c9c0f105dba1e93e3da93c884"

	// DefaultScript is the file installed into pkgshare
	DefaultScript = "qcd.zsh"

	// BootstrapScript is the generated setup helper written next to the script
	BootstrapScript = "install.zsh"

	// StoreEnv names the variable the wrapped tool reads its bookmark store path from
	StoreEnv = "QCD_STORE"
)
