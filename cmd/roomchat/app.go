package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/joss/roomchat/internal/camera"
	"github.com/joss/roomchat/internal/config"
	"github.com/joss/roomchat/internal/gateway"
	"github.com/joss/roomchat/internal/levels"
	"github.com/joss/roomchat/internal/preview"
	"github.com/joss/roomchat/internal/render"
	"github.com/joss/roomchat/internal/session"
	"github.com/joss/roomchat/internal/timeline"
	"github.com/joss/roomchat/internal/tui"
)

func newClient() *gateway.Client {
	url := apiURL
	if url == "" {
		url = config.Env().APIURL
	}
	return gateway.New(url)
}

func loadCatalog() (*levels.Catalog, error) {
	return levels.Load(config.Env().LevelsFile)
}

// resolveLevel maps --level / --config-path / environment defaults to a
// level id and the backend scenario file.
func resolveLevel() (id, path string, err error) {
	env := config.Env()

	id = levelID
	if id == "" {
		id = env.Level
	}
	if id != "" {
		catalog, err := loadCatalog()
		if err != nil {
			return "", "", err
		}
		l, ok := catalog.Find(id)
		if !ok {
			return "", "", fmt.Errorf("unknown level %q (see 'roomchat levels')", id)
		}
		path = l.ConfigPath
	}

	if configPath != "" {
		path = configPath
	}
	if path == "" {
		path = env.ConfigPath
	}
	return id, path, nil
}

// newController builds a controller for an existing or new session and
// registers its cleanup.
func newController(id string) (*session.Controller, error) {
	level, path, err := resolveLevel()
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = config.Env().SessionID
	}

	ctrl := session.NewController(newClient(), timeline.New(preview.NewStore()), session.Options{
		SessionID:  id,
		ConfigPath: path,
		LevelID:    level,
	})
	shutdown.RegisterSimple("session previews", ctrl.Close)
	return ctrl, nil
}

// newCamera returns nil when no capture device is present.
func newCamera() *camera.Camera {
	env := config.Env()
	if env.CameraDevice == "" {
		return nil
	}
	if _, err := os.Stat(env.CameraDevice); err != nil {
		return nil
	}

	dev := camera.NewFFmpegDevice(env.FFmpeg, env.CameraDevice)
	if env.CameraTimeout > 0 {
		dev.FirstFrameTimeout = env.CameraTimeout
	}
	cam := camera.New(dev, camera.Constraints{Facing: camera.Facing(env.CameraFacing)})
	shutdown.RegisterSimple("camera", cam.Close)
	return cam
}

func runChat(ctx context.Context) error {
	ctrl, err := newController(sessionID)
	if err != nil {
		return err
	}

	title := "Escape Room"
	if level, _, _ := resolveLevel(); level != "" {
		if catalog, err := loadCatalog(); err == nil {
			if l, ok := catalog.Find(level); ok {
				title = l.Title
			}
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return tui.Run(ctx, tui.Options{
		Controller:  ctrl,
		Camera:      newCamera(),
		GalleryRoot: cwd,
		Title:       title,
	})
}

func renderer() *render.Renderer {
	return render.New(term.IsTerminal(int(os.Stdout.Fd())) && !noColor)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// promptConfirm asks on stdin. Without a terminal nothing can be confirmed.
func promptConfirm(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// exchange prints the reply turn of a completed exchange. Failed exchanges
// still print their error turn before the error is returned.
func exchange(reply timeline.Message, err error) error {
	if reply.ID != "" {
		if jsonOut {
			if perr := printJSON(reply); perr != nil {
				return perr
			}
		} else {
			fmt.Print(renderer().Message(reply))
		}
	}
	return err
}
