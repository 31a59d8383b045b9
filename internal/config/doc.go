// Package config loads the pmmenu configuration file: the policy workspace
// root, the operation log path, the editor, and the paths of the wrapped
// Privilege Manager binaries.
package config
