package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joss/roomchat/internal/gateway"
	"github.com/joss/roomchat/internal/render"
	"github.com/joss/roomchat/internal/session"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage game sessions",
	}

	// roomchat session create
	var id string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session and print the welcome message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(id)
			if err != nil {
				return err
			}
			info, err := ctrl.Initialize(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(info)
			}
			r := renderer()
			fmt.Print(r.Session(ctrl.Info()))
			fmt.Println()
			fmt.Print(r.Transcript(ctrl.Timeline().Snapshot()))
			return nil
		},
	}
	createCmd.Flags().StringVarP(&id, "session", "s", "", "Session id (generated when empty)")

	// roomchat session status <id>
	statusCmd := &cobra.Command{
		Use:   "status <session>",
		Short: "Show session status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(args[0])
			if err != nil {
				return err
			}
			info, err := ctrl.RefreshStatus(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(info)
			}
			fmt.Print(renderer().Session(ctrl.Info()))
			return nil
		},
	}

	// roomchat session reset <id>
	var yes bool
	resetCmd := &cobra.Command{
		Use:   "reset <session>",
		Short: "Restart a session from the beginning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(args[0])
			if err != nil {
				return err
			}
			var confirm session.Confirmer = session.ConfirmFunc(promptConfirm)
			if yes {
				confirm = session.Confirmed
			}
			info, err := ctrl.Reset(cmd.Context(), confirm)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(info)
			}
			fmt.Print(renderer().Transcript(ctrl.Timeline().Snapshot()))
			return nil
		},
	}
	resetCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	// roomchat session delete <id>
	deleteCmd := &cobra.Command{
		Use:   "delete <session>",
		Short: "Delete a session on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			resp, err := newClient().DeleteSession(cmd.Context(), args[0])
			if err != nil {
				if gateway.IsNotFound(err) {
					return fmt.Errorf("session %s not found", args[0])
				}
				return err
			}
			if jsonOut {
				return printJSON(resp)
			}
			fmt.Printf("Deleted %s (%s)\n", resp.SessionID, render.FormatDuration(time.Since(start)))
			return nil
		},
	}

	cmd.AddCommand(createCmd, statusCmd, resetCmd, deleteCmd)
	return cmd
}
