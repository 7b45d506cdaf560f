/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
)

// setupLogging sends log lines to stdout and, when logFile is set, appends
// them to logFile as well. Text output is used on a terminal, JSON otherwise.
func setupLogging(level, logFile string) (func() error, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)

	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}

	if logFile == "" {
		log.SetOutput(os.Stdout)
		return func() error { return nil }, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))

	return func() error {
		log.SetOutput(os.Stdout)
		return f.Close()
	}, nil
}
