package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/lixenwraith/termkit/core"
	"github.com/lixenwraith/termkit/screen"
	"github.com/lixenwraith/termkit/service"
	"github.com/lixenwraith/termkit/terminal"
)

var (
	colorModeFlag = flag.String("color", "auto", "Color mode: auto, mono, 8, 16, 256, truecolor")
	configFlag    = flag.String("config", "", "Config file (.toml or .yaml)")
	debugFlag     = flag.Bool("debug", false, "Write a debug log to logs/input-test.log")
)

const maxLog = 10

func main() {
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()
	flag.Parse()

	log, logFile, err := core.SetupLogging("input-test", *debugFlag)
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
	cfg.Mouse = true
	cfg.TrackMotion = true
	cfg.BracketedPaste = true
	cfg.ReportSignals = terminal.NewSignalSet(terminal.SignalInterrupt, terminal.SignalContinue, terminal.SignalQuit)
	cfg.Logger = log

	hub := service.NewHub()
	svc := terminal.NewService()
	hub.Register(svc)
	if err := hub.InitAll(map[string][]any{svc.Name(): {cfg}}); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}
	term := svc.Terminal()
	core.SetCrashTerminal(term)
	defer core.SetCrashTerminal(nil)
	defer func() {
		if err := hub.StopAll(); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	scr, err := screen.Open(term)
	if err != nil {
		hub.StopAll()
		fmt.Fprintf(os.Stderr, "screen: %v\n", err)
		os.Exit(1)
	}
	defer scr.Close()

	if err := hub.StartAll(); err != nil {
		log.Error("service start failed", zap.Error(err))
		return
	}

	app := &inputTest{scr: scr, caps: term.Capabilities()}
	w, h := scr.Size()
	app.objX, app.objY = w/2, h/2
	app.render()

	for ev := range svc.Events() {
		scr.HandleEvent(ev)
		if !app.handle(ev) {
			return
		}
		app.render()
	}
	select {
	case err := <-svc.Err():
		log.Info("input ended", zap.Error(err))
	default:
	}
}

type inputTest struct {
	scr  *screen.Screen
	caps *terminal.Capabilities

	objX, objY int
	dragging   bool
	eventLog   []string
}

func (a *inputTest) addLog(s string) {
	if len(a.eventLog) >= maxLog {
		a.eventLog = append(a.eventLog[:0], a.eventLog[1:]...)
	}
	a.eventLog = append(a.eventLog, s)
}

// handle applies ev; false ends the program
func (a *inputTest) handle(ev terminal.Event) bool {
	w, h := a.scr.Size()
	switch ev.Type {
	case terminal.EventKey:
		if ev.Key == terminal.KeyCtrlC || ev.Key == terminal.KeyCtrlQ {
			return false
		}
		a.addLog(formatKeyEvent(ev))

	case terminal.EventMouse:
		a.addLog(formatMouseEvent(ev))
		switch ev.MouseAction {
		case terminal.MouseActionPress:
			if ev.MouseBtn == terminal.MouseBtnLeft && ev.MouseX >= a.objX && ev.MouseX < a.objX+3 && ev.MouseY == a.objY {
				a.dragging = true
			}
		case terminal.MouseActionRelease:
			a.dragging = false
		case terminal.MouseActionDrag:
			if a.dragging {
				a.objX = min(max(ev.MouseX, 0), max(w-3, 0))
				a.objY = min(max(ev.MouseY, 0), max(h-1, 0))
			}
		}

	case terminal.EventPaste:
		a.addLog("PASTE: " + strconv.Quote(ev.Text))

	case terminal.EventRaw:
		a.addLog("RAW: " + strconv.Quote(string(ev.Raw)))

	case terminal.EventSignal:
		if ev.Signal == terminal.SignalInterrupt || ev.Signal == terminal.SignalQuit {
			return false
		}
		a.addLog("SIGNAL: " + ev.Signal.String())

	case terminal.EventResize:
		a.objX = min(a.objX, max(w-3, 0))
		a.objY = min(a.objY, max(h-1, 0))
		a.addLog(fmt.Sprintf("RESIZE: %dx%d", ev.Width, ev.Height))
	}
	return true
}

var (
	styleBase   = terminal.Style{Fg: terminal.NewRGBColor(180, 180, 180), Bg: terminal.NewRGBColor(20, 20, 30)}
	styleTitle  = terminal.Style{Fg: terminal.NewRGBColor(200, 200, 200), Bg: terminal.NewRGBColor(40, 40, 60), Attrs: terminal.AttrBold}
	styleRule   = terminal.Style{Fg: terminal.NewRGBColor(60, 60, 80), Bg: terminal.NewRGBColor(20, 20, 30)}
	styleStatus = terminal.Style{Fg: terminal.NewRGBColor(140, 140, 160), Bg: terminal.NewRGBColor(20, 20, 30)}
)

func (a *inputTest) render() {
	scr := a.scr
	w, h := scr.Size()
	scr.Fill(screen.Cell{Rune: ' ', Style: styleBase})

	title := "Input Test - keys, mouse, paste; drag the [X] - Ctrl+C to quit"
	scr.PutString(max((w-len(title))/2, 0), 0, title, styleTitle)
	hline(scr, 1, w)

	for i, entry := range a.eventLog {
		y := 2 + i
		if y >= h-2 {
			break
		}
		scr.PutString(1, y, entry, styleBase)
	}

	if a.objY >= 2 && a.objY < h-2 {
		fg := terminal.NewRGBColor(100, 255, 100)
		if a.dragging {
			fg = terminal.NewRGBColor(255, 255, 100)
		}
		scr.PutString(a.objX, a.objY, "[X]", terminal.Style{Fg: fg, Bg: terminal.NewRGBColor(40, 40, 60), Attrs: terminal.AttrBold})
	}

	hline(scr, h-2, w)
	status := fmt.Sprintf("Size: %dx%d | Term: %s | Colors: %s | Object: (%d,%d) | Dragging: %v",
		w, h, a.caps.Term, a.caps.Mode, a.objX, a.objY, a.dragging)
	scr.PutString(1, h-1, status, styleStatus)

	scr.SetCursorVisible(false)
	scr.Render()
}

func hline(scr *screen.Screen, y, w int) {
	for x := 0; x < w; x++ {
		scr.PutCell(x, y, screen.Cell{Rune: '─', Style: styleRule})
	}
}

func formatKeyEvent(ev terminal.Event) string {
	var mods string
	if ev.Modifiers != terminal.ModNone {
		mods = ev.Modifiers.String() + "+"
	}

	keyName := ev.Key.String()
	if ev.Key == terminal.KeyRune {
		if ev.Rune >= 0x20 && ev.Rune < 0x7f {
			keyName = fmt.Sprintf("'%c'", ev.Rune)
		} else {
			keyName = fmt.Sprintf("U+%04X", ev.Rune)
		}
	}
	return fmt.Sprintf("KEY: %s%s (%d bytes)", mods, keyName, ev.Size)
}

func formatMouseEvent(ev terminal.Event) string {
	var mods string
	if ev.Modifiers != terminal.ModNone {
		mods = ev.Modifiers.String() + "+"
	}
	return fmt.Sprintf("MOUSE: %s%s %s @ (%d,%d)",
		mods, ev.MouseBtn.String(), ev.MouseAction.String(), ev.MouseX, ev.MouseY)
}
