package lib

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	LogTimeFormat = "2006-01-02T15:04:05.000"
)

func consoleWriter() io.Writer {
	if runtime.GOOS == "windows" {
		return zerolog.ConsoleWriter{Out: colorable.NewColorableStderr(), TimeFormat: LogTimeFormat}
	}
	return zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false, TimeFormat: LogTimeFormat}
}

// ZeroConsoleLog logs to stderr, pretty printed or as JSON lines.
func ZeroConsoleLog(pretty bool) {
	if pretty {
		log.Logger = zerolog.New(consoleWriter()).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// ZeroConsoleAndFileLog logs to the console and appends JSON lines to filename.
func ZeroConsoleAndFileLog(filename string, pretty bool) error {
	logFile, err := os.OpenFile(filename, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		ZeroConsoleLog(pretty)
		return fmt.Errorf("error setting up log file: %w", err)
	}

	var console io.Writer = os.Stderr
	if pretty {
		console = consoleWriter()
	}
	mw := io.MultiWriter(logFile, console)
	log.Logger = zerolog.New(mw).With().Timestamp().Logger()
	return nil
}

// SetLogLevel switches between debug and info level.
func SetLogLevel(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
