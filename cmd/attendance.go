package cmd

import (
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Capture and inspect attendance",
	Long:  `Capture attendance from class photos and browse the recorded history.`,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
}
