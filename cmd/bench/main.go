package main

import (
	"os"

	"doc-bench/internal/app"
	"doc-bench/internal/logger"
)

func main() {
	root := newRootCommand(func() (app.Deps, error) {
		// stdout carries command output, so logs go to stderr
		return app.Build(logger.NewWithWriter(os.Stderr, os.Getenv("LOG_LEVEL"), true))
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
