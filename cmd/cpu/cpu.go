package cpu

import (
	"github.com/spf13/cobra"
)

// CpuCmd groups everything related to running and inspecting Cucaracha
// programs: compiling, executing, interactive debugging, and symbol
// inspection.
var CpuCmd = &cobra.Command{
	Use:   "cpu",
	Short: "Run, debug and inspect Cucaracha programs",
}

func init() {
}
