package export

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrNoBrowser is returned when no Chrome, Chromium or Edge can be found.
var ErrNoBrowser = errors.New("no Chrome, Chromium or Edge installation found")

// lookPathNames are tried on $PATH after the well-known locations.
var lookPathNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"microsoft-edge",
	"chrome",
}

// FindBrowser returns the browser executable to print with. A configured
// path wins when it exists; otherwise the platform's usual install
// locations and then $PATH are searched.
func FindBrowser(configured string) (string, error) {
	if configured != "" {
		if isFile(configured) {
			return configured, nil
		}
		return "", fmt.Errorf("%w: configured browser %s does not exist", ErrNoBrowser, configured)
	}

	home, _ := os.UserHomeDir()
	for _, candidate := range candidates(runtime.GOOS, os.Getenv, home) {
		if isFile(candidate) {
			return candidate, nil
		}
	}
	for _, name := range lookPathNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: install one of them or set export.browser (MDSYNC_BROWSER)", ErrNoBrowser)
}

// candidates lists install locations for goos in search order.
func candidates(goos string, getenv func(string) string, home string) []string {
	switch goos {
	case "darwin":
		paths := []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		}
		if home != "" {
			paths = append(paths, filepath.Join(home, "Applications/Google Chrome.app/Contents/MacOS/Google Chrome"))
		}
		return paths

	case "windows":
		programFiles := envOr(getenv, "PROGRAMFILES", `C:\Program Files`)
		programFilesX86 := envOr(getenv, "PROGRAMFILES(X86)", `C:\Program Files (x86)`)
		paths := []string{
			programFiles + `\Google\Chrome\Application\chrome.exe`,
			programFilesX86 + `\Google\Chrome\Application\chrome.exe`,
		}
		if local := getenv("LOCALAPPDATA"); local != "" {
			paths = append(paths, local+`\Google\Chrome\Application\chrome.exe`)
		}
		return append(paths, programFiles+`\Microsoft\Edge\Application\msedge.exe`)

	default:
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	}
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func isFile(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && !stat.IsDir()
}
