package constant

import (
	_ "embed"
	"fmt"
	"strings"
	"time"
)

const Name = "sadl"

var (
	//go:embed version
	version string
	Version = strings.TrimSpace(version)

	// Overridden at build time with -ldflags "-X github.com/xeptore/sadl/constant.compileTime=...".
	compileTime = "2026-01-01T00:00:00Z"
	CompileTime time.Time
)

func init() {
	t, err := time.Parse(time.RFC3339, compileTime)
	if nil != err {
		panic(fmt.Errorf("could not parse CompileTime constant %q. Make sure it is set at build time in RFC3339 format", compileTime))
	}
	CompileTime = t
}

func UserAgent() string {
	return Name + "/" + Version
}
