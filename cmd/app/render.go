package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/reviewink/internal/drawing"
	"github.com/starford/reviewink/internal/export"
	"github.com/starford/reviewink/internal/raster"
)

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render a drawing JSON file to PNG or PDF",
		ArgsUsage: "<drawing.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file, format from the extension (.png or .pdf); - for stdout", Value: "-"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "png or pdf, overrides the extension"},
			&cli.FloatFlag{Name: "width", Usage: "Output width; defaults to the recorded canvas size"},
			&cli.FloatFlag{Name: "height", Usage: "Output height; defaults to the recorded canvas size"},
			&cli.StringFlag{Name: "background", Aliases: []string{"b"}, Usage: "Frame image (PNG or JPEG) to draw over"},
		},
		Action: runRender,
	}
}

func runRender(_ context.Context, cmd *cli.Command) error {
	src := cmd.Args().First()
	if src == "" {
		return errors.New("render: drawing file is required")
	}
	raw, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("render: read drawing: %w", err)
	}
	d, err := drawing.Decode(raw)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	var bg image.Image
	if path := cmd.String("background"); path != "" {
		bg, err = decodeImage(path)
		if err != nil {
			return err
		}
	}

	out := cmd.String("out")
	format := strings.ToLower(cmd.String("format"))
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
	}
	if format == "" {
		format = "png"
	}

	var w io.Writer = os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("render: create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	size := drawing.Size{Width: cmd.Float("width"), Height: cmd.Float("height")}
	switch format {
	case "png":
		err = raster.RenderPNG(w, d, size, bg)
	case "pdf":
		err = export.WritePDF(w, d, export.PDFOptions{Size: size, Background: bg, Title: filepath.Base(src)})
	default:
		return fmt.Errorf("render: unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("render: open background: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("render: decode background: %w", err)
	}
	return img, nil
}
