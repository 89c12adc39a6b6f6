/*
Package bootstrap wires an installed script into the user's zsh startup
file.

There are two ways in. Script renders install.zsh, a helper shipped
next to the installed script that the user sources once:

	source "$(brew --prefix)/opt/qcd/share/qcd/install.zsh"

Setup does the same work from Go. Because a child process cannot change
its parent shell, the "load it now" half is handed back as shell code
when Options.Sourced is set, for the caller to eval:

	eval "$(brewlet setup --eval)"

Either way the startup file gains the source line at most once.
*/
package bootstrap
