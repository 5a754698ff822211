package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joss/roomchat/internal/config"
	"github.com/joss/roomchat/internal/media"
)

// roomchat say <session> <text...>
func sayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "say <session> <text...>",
		Short: "Send one message to the game master",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(args[0])
			if err != nil {
				return err
			}
			return exchange(ctrl.SendText(cmd.Context(), strings.Join(args[1:], " ")))
		},
	}
}

// roomchat upload <session> <file>
func uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <session> <file>",
		Short: "Send an image file to the game master",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := media.Load(args[1])
			if err != nil {
				return err
			}
			ctrl, err := newController(args[0])
			if err != nil {
				return err
			}
			return exchange(ctrl.SendImage(cmd.Context(), file))
		},
	}
}

// roomchat submit <session> <item...>
func submitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <session> <item...>",
		Short: "Submit an item to the game",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(args[0])
			if err != nil {
				return err
			}
			return exchange(ctrl.SubmitItem(cmd.Context(), strings.Join(args[1:], " ")))
		},
	}
}

// roomchat items <session>
func itemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "items <session>",
		Short: "List the items a session can submit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(args[0])
			if err != nil {
				return err
			}
			items, err := ctrl.ListItems(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(items)
			}
			fmt.Print(renderer().Items(items))
			return nil
		},
	}
}

// roomchat capture [out.jpg] [--send <session>]
func captureCmd() *cobra.Command {
	var send string
	cmd := &cobra.Command{
		Use:   "capture [out.jpg]",
		Short: "Take a photo with the camera",
		Long: `Take a single photo with the configured camera.

The JPEG is written to the given path, or to ~/.roomchat/captures when no
path is given. With --send the photo is also sent to a session.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cam := newCamera()
			if cam == nil {
				return errors.New("no camera available (set ROOMCHAT_CAMERA_DEVICE)")
			}
			defer cam.Close()

			ctx := cmd.Context()
			if err := cam.Start(ctx); err != nil {
				return err
			}
			file, err := cam.Capture(ctx)
			if err != nil {
				return err
			}

			out := ""
			if len(args) == 1 {
				out = args[0]
			} else {
				dir := config.GetPaths().Captures
				if err := config.EnsureDir(dir); err != nil {
					return err
				}
				out = filepath.Join(dir, fmt.Sprintf("photo-%d.jpg", time.Now().UnixMilli()))
			}
			if err := os.WriteFile(out, file.Data, 0644); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Saved %s (%d KB)\n", out, (file.Size()+1023)/1024)

			if send == "" {
				return nil
			}
			ctrl, err := newController(send)
			if err != nil {
				return err
			}
			return exchange(ctrl.SendImage(ctx, file))
		},
	}
	cmd.Flags().StringVar(&send, "send", "", "Send the photo to this session")
	return cmd
}
