package cmd

import (
	"github.com/spf13/cobra"
)

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Manage the student roster",
	Long:  `Add, list, enroll and look up students.`,
}

func init() {
	rootCmd.AddCommand(studentCmd)
}
