package util

import (
	"errors"
	"os/exec"
	"runtime"
)

// ErrNoBrowser 所有打开方式都失败
var ErrNoBrowser = errors.New("no browser could be opened")

// browserCommands 按优先级返回打开 url 的命令
func browserCommands(goos, url string) [][]string {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 稳定
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", url},
			{"explorer", url},
		}
	case "darwin":
		return [][]string{{"open", url}}
	default:
		cmds := [][]string{{"xdg-open", url}}
		for _, browser := range []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"} {
			cmds = append(cmds, []string{browser, url})
		}
		return cmds
	}
}

// OpenBrowser 用系统默认浏览器打开 url，失败时依次尝试备选方式
func OpenBrowser(url string) error {
	return openWith(browserCommands(runtime.GOOS, url), func(name string, args ...string) error {
		return exec.Command(name, args...).Start()
	})
}

func openWith(cmds [][]string, start func(name string, args ...string) error) error {
	var errs []error
	for _, c := range cmds {
		err := start(c[0], c[1:]...)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(append([]error{ErrNoBrowser}, errs...)...)
}
