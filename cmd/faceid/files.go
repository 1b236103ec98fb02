package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// maxParallelReads bounds open file handles while loading images
const maxParallelReads = 4

// readImages loads every path concurrently, preserving argument order.
// The first failure cancels the remaining reads.
func readImages(ctx context.Context, paths []string, progress io.Writer, maxSize int64) ([][]byte, error) {
	images := make([][]byte, len(paths))

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("reading images"),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := readImage(path, maxSize)
			if err != nil {
				return err
			}
			images[i] = data
			_ = bar.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	_ = bar.Finish()
	return images, nil
}

func readImage(path string, maxSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 || (maxSize > 0 && info.Size() > maxSize) {
		return nil, fmt.Errorf("%s: size %d outside (0, %d]", path, info.Size(), maxSize)
	}
	return os.ReadFile(path)
}
