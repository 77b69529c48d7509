package mc

import (
	"github.com/spf13/cobra"
)

// McCmd groups the machine-code toolchain commands: LLVM tablegen
// generation, clang driver introspection, and related build-time tools.
var McCmd = &cobra.Command{
	Use:   "mc",
	Short: "Cucaracha machine-code toolchain commands",
}

func init() {
}
