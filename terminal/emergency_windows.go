//go:build windows

package terminal

import "golang.org/x/sys/windows"

// resetTerminalMode restores line input and echo on the console
func resetTerminalMode() {
	name, _ := windows.UTF16PtrFromString("CONIN$")
	h, err := windows.CreateFile(name, windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE, nil, windows.OPEN_EXISTING, 0, 0)
	if err != nil {
		return
	}
	defer windows.CloseHandle(h)

	var mode uint32
	if windows.GetConsoleMode(h, &mode) != nil {
		return
	}
	mode |= windows.ENABLE_LINE_INPUT | windows.ENABLE_ECHO_INPUT | windows.ENABLE_PROCESSED_INPUT
	windows.SetConsoleMode(h, mode)
}
