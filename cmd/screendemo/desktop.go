package main

import (
	"errors"
	"fmt"
	"sync"

	"screenkit/internal/app"

	"github.com/atotto/clipboard"
	"github.com/sqweek/dialog"
	xclipboard "golang.design/x/clipboard"
)

var (
	imageClipOnce sync.Once
	imageClipErr  error
)

func writeImage(data []byte) error {
	imageClipOnce.Do(func() { imageClipErr = xclipboard.Init() })
	if imageClipErr != nil {
		return fmt.Errorf("image clipboard unavailable: %w", imageClipErr)
	}
	xclipboard.Write(xclipboard.FmtImage, data)
	return nil
}

func pickSavePath() (string, error) {
	path, err := dialog.File().Filter("PNG image", "png").Title("Save frame").Save()
	if errors.Is(err, dialog.ErrCancelled) {
		return "", nil
	}
	return path, err
}

func desktop() app.Desktop {
	return app.Desktop{
		WriteText:    clipboard.WriteAll,
		WriteImage:   writeImage,
		PickSavePath: pickSavePath,
	}
}
