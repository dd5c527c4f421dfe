// Package launch shells out to the user's editor, file manager and
// terminal.
package launch

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Editor returns the user's editor command, from $VISUAL then $EDITOR,
// defaulting to vim.
func Editor() string {
	if v := os.Getenv("VISUAL"); v != "" {
		return v
	}
	if v := os.Getenv("EDITOR"); v != "" {
		return v
	}
	return "vim"
}

// EditorCmd builds the command that opens path in the user's editor,
// wired to the current terminal. The caller decides how to run it (a
// TUI hands the terminal over first).
func EditorCmd(path string) *exec.Cmd {
	cmd := exec.Command(Editor(), path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Open hands the path to the platform opener and returns without
// waiting.
func Open(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}

// Reveal shows the path in the platform file manager, selected where
// the platform supports it.
func Reveal(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", "-R", path)
	case "windows":
		cmd = exec.Command("explorer", "/select,", path)
	default:
		cmd = exec.Command("xdg-open", parentOf(path))
	}
	return cmd.Start()
}

// Terminal spawns a new terminal window in dir. On linux it tries
// $TERMINAL first, then common emulators.
func Terminal(dir string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", "-a", "Terminal", dir).Start()
	case "windows":
		cmd := exec.Command("cmd", "/c", "start", "cmd")
		cmd.Dir = dir
		return cmd.Start()
	}
	candidates := []string{os.Getenv("TERMINAL"), "x-terminal-emulator", "gnome-terminal", "konsole", "alacritty", "kitty", "xterm"}
	for _, name := range candidates {
		if name == "" {
			continue
		}
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		cmd := exec.Command(name)
		cmd.Dir = dir
		return cmd.Start()
	}
	return fmt.Errorf("no terminal emulator found")
}

func parentOf(path string) string {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return path
	}
	return filepath.Dir(path)
}
