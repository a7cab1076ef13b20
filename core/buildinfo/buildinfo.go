// Package buildinfo carries version metadata stamped by the linker:
//
//	go build -ldflags "-X github.com/m3rciful/dietbot/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/m3rciful/dietbot/core/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

var (
	Version = "dev"
	Commit  = "local"
	// Date is the build timestamp in RFC3339.
	Date = ""
)

// String renders the build identity for /stats and startup logs.
func String() string {
	s := Version + "+" + Commit
	if Date != "" {
		s += " (" + Date + ")"
	}
	return s
}
