// Package open shells out to platform tools for the two "leave the
// terminal" actions: opening a work item in the browser and copying its
// URL to the clipboard.
package open

import (
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// isWSL reports whether we are on Linux under WSL, where Windows tools
// (explorer.exe, clip.exe) are the ones that reach the user's desktop.
func isWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	if os.Getenv("WSL_DISTRO_NAME") != "" {
		return true
	}
	version, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(version)), "microsoft")
}

// browserCommand picks the URL opener for the given platform.
func browserCommand(goos string, wsl bool) (string, []string) {
	switch {
	case goos == "darwin":
		return "open", nil
	case goos == "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	case wsl:
		return "explorer.exe", nil
	default:
		return "xdg-open", nil
	}
}

// Browser opens url in the user's default browser.
func Browser(url string) error {
	name, args := browserCommand(runtime.GOOS, isWSL())
	cmd := exec.Command(name, append(args, url)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser via %s: %w", name, err)
	}
	// Detach; the opener's exit status is not worth blocking the UI for.
	go cmd.Wait()
	return nil
}

// clipboardCommand picks the native clipboard writer, or "" when none is
// likely to exist and the OSC 52 fallback should be used directly.
func clipboardCommand(goos string, wsl bool, env func(string) string) (string, []string) {
	switch {
	case goos == "darwin":
		return "pbcopy", nil
	case wsl, goos == "windows":
		return "clip.exe", nil
	case env("WAYLAND_DISPLAY") != "":
		return "wl-copy", nil
	case env("DISPLAY") != "":
		return "xclip", []string{"-selection", "clipboard"}
	default:
		return "", nil
	}
}

// Clipboard copies text to the system clipboard. It tries the native tool
// first and falls back to the OSC 52 escape sequence, which works over SSH
// in terminals that support it.
func Clipboard(text string) error {
	if text == "" {
		return fmt.Errorf("nothing to copy")
	}

	name, args := clipboardCommand(runtime.GOOS, isWSL(), os.Getenv)
	if name != "" {
		if path, err := exec.LookPath(name); err == nil {
			cmd := exec.Command(path, args...)
			cmd.Stdin = strings.NewReader(text)
			if err := cmd.Run(); err == nil {
				return nil
			}
		}
	}
	return clipboardOSC52(text)
}

// clipboardOSC52 writes the OSC 52 sequence straight to the terminal.
func clipboardOSC52(text string) error {
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("no clipboard tool and no tty for OSC 52: %w", err)
	}
	defer tty.Close()

	_, err = tty.WriteString(osc52Sequence(text, os.Getenv("TMUX") != ""))
	return err
}

// osc52Sequence builds the escape sequence, wrapped in a DCS passthrough
// when running inside tmux.
func osc52Sequence(text string, inTmux bool) string {
	seq := "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\x07"
	if inTmux {
		return "\x1bPtmux;\x1b" + seq + "\x1b\\"
	}
	return seq
}
