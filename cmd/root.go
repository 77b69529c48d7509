package cmd

import (
	"fmt"
	"os"

	"github.com/cucaracha-dbg/cucaracha/cmd/cpu"
	"github.com/cucaracha-dbg/cucaracha/cmd/mc"
	"github.com/cucaracha-dbg/cucaracha/cmd/tools"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cucaracha",
	Short: "An emulator for a CPU of my own",
	Long: `Cucaracha is a toy CPU architecture implemented as an emulator and a C/C++ toolchain.

This CLI is the entry point for the Cucaracha ecosystem, providing access to the emulator, tools, etc`,
	// Uncomment the following line if your bare application
	// has an action associated with it:
	// Run: func(cmd *cobra.Command, args []string) { },
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Nothing in this module calls it yet (main.go runs a fixed CPU program
// instead). It only needs to happen once to the rootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(tools.ToolsCmd, mc.McCmd, cpu.CpuCmd)
	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".cucaracha" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".cucaracha")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
