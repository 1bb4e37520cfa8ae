package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/termkit/core"
	"github.com/lixenwraith/termkit/terminal"
	"github.com/lixenwraith/termkit/terminal/edit"
)

var (
	colorModeFlag = flag.String("color", "auto", "Color mode: auto, mono, 8, 16, 256, truecolor")
	configFlag    = flag.String("config", "", "Config file (.toml or .yaml)")
	debugFlag     = flag.Bool("debug", false, "Write a debug log to logs/line-test.log")
	tickFlag      = flag.Duration("tick", 0, "Print a message at this interval while editing")
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()
	flag.Parse()

	log, logFile, err := core.SetupLogging("line-test", *debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	defer log.Sync()

	cfg, err := terminal.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *colorModeFlag != "auto" {
		mode, err := terminal.ParseColorMode(*colorModeFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		cfg.ColorMode = mode
	}
	// Line mode: the terminal stays cooked between reads
	cfg.RawMode = false
	cfg.BracketedPaste = true
	cfg.ReportSignals = terminal.NewSignalSet(terminal.SignalInterrupt)
	cfg.Logger = log

	term, err := terminal.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
		os.Exit(1)
	}
	core.SetCrashTerminal(term)
	defer core.SetCrashTerminal(nil)
	defer term.Close()

	if *tickFlag > 0 {
		stop := make(chan struct{})
		defer close(stop)
		core.Go(func() { ticker(term, *tickFlag, stop) })
	}

	hist := edit.NewHistory(0)
	accent := terminal.Style{Fg: terminal.ColorCyan, Attrs: terminal.AttrBold}
	term.WriteStyled(accent, "line-test: type 'help' for commands\n")

	for {
		line, err := term.ReadLine("> ", hist)
		switch {
		case errors.Is(err, io.EOF):
			term.WriteString("\n")
			return
		case errors.Is(err, terminal.ErrInterrupted):
			continue
		case err != nil:
			log.Error("read line failed", zap.Error(err))
			fmt.Fprintf(os.Stderr, "read: %v\n", err)
			return
		}
		if !command(term, hist, strings.TrimSpace(line)) {
			return
		}
	}
}

// command runs one input line; false ends the program
func command(term *terminal.Terminal, hist *edit.History, line string) bool {
	switch line {
	case "":
	case "quit", "exit":
		return false
	case "help":
		term.WriteString("commands: help, history, size, caps, clear, quit\n")
	case "history":
		for i, h := range hist.Entries() {
			term.WriteString(fmt.Sprintf("%4d  %s\n", i+1, h))
		}
	case "size":
		w, h := term.Size()
		term.WriteString(fmt.Sprintf("%dx%d\n", w, h))
	case "caps":
		caps := term.Capabilities()
		h, _ := caps.Resolve(terminal.CapCursorPos)
		term.WriteString(fmt.Sprintf("term=%s colors=%s fallback=%v cup=%s\n", caps.Term, caps.Mode, caps.Fallback, h.Source))
	case "clear":
		term.ClearScreen()
	default:
		term.WriteStyled(terminal.Style{Attrs: terminal.AttrDim}, "echo: ")
		term.WriteString(line + "\n")
	}
	term.Flush()
	return true
}

// ticker writes above the line being edited
func ticker(term *terminal.Terminal, interval time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()
	n := 0
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			n++
			if err := term.WriteString(fmt.Sprintf("tick %d\n", n)); err != nil {
				return
			}
			term.Flush()
		}
	}
}
