package main

import (
	"github.com/gitgenie/gitgenie/cmd"
	"github.com/gitgenie/gitgenie/pkg/version"
)

// Populated at build time with -ldflags.
var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

func main() {
	version.Set(buildVersion, buildCommit, buildDate)
	cmd.Execute()
}
