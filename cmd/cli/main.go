package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/moriarty/cmd/cli/chat"
	"github.com/myrjola/moriarty/cmd/cli/sim"
	"github.com/spf13/cobra"
)

func init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(sim.Group)
	rootCmd.AddCommand(sim.Werewolf)
	rootCmd.AddGroup(chat.Group)
	rootCmd.AddCommand(chat.Ask)
}

var rootCmd = &cobra.Command{
	Use:  "moriarty-cli",
	Long: `Command line utilities for Moriarty https://github.com/myrjola/moriarty`,
	Run: func(cmd *cobra.Command, args []string) {
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
