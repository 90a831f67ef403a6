package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rollcall",
	Short: "Face recognition attendance tracking for classrooms",
	Long: `Rollcall tracks classroom attendance with face recognition.
Teachers enroll each student's face once, then capture attendance for a
whole class from a single photo. Matched students are marked present,
everyone else absent, and guardians of absent students are notified by SMS.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
