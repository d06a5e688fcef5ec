package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("telnetc failed")
		os.Exit(1)
	}
}
