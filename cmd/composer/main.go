package main

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/alexcabrera/composer/internal/version"
)

func main() {
	ctx := context.Background()
	cmd := newRootCmd()

	// Custom error handler that suppresses errors we already printed
	errorHandler := func(w io.Writer, styles fang.Styles, err error) {
		if err == errReported {
			return
		}
		fang.DefaultErrorHandler(w, styles, err)
	}

	if err := fang.Execute(ctx, cmd,
		fang.WithVersion(version.Version),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		os.Exit(1)
	}
}
