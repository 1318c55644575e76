package version

// Version is the current application version.
// This is a var (not const) so it can be overridden at build time via:
//
//	go build -ldflags "-X github.com/vanderheijden86/treeview/pkg/version.Version=v0.2.0"
var Version = "v0.1.0"
