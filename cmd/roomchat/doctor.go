package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/roomchat/internal/config"
	"github.com/joss/roomchat/internal/exec"
	"github.com/joss/roomchat/internal/selftest"
)

func doctorCmd() *cobra.Command {
	var quick bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the backend, camera and local setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := config.Env()
			checker := &selftest.Checker{
				Backend:      newClient(),
				Runner:       exec.Default,
				FFmpeg:       env.FFmpeg,
				CameraDevice: env.CameraDevice,
				LevelsFile:   env.LevelsFile,
				LogFile:      config.LogFile(),
			}

			report := checker.Check(cmd.Context())
			switch {
			case jsonOut:
				if err := printJSON(report); err != nil {
					return err
				}
			case quick:
				fmt.Println(report.QuickCheck())
			default:
				fmt.Print(report.Summary())
			}

			if !report.IsHealthy() {
				return errors.New("environment unhealthy")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quick, "quick", "q", false, "One-line output")
	return cmd
}
