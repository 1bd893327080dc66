package pane

import (
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Clipboard copies text to the user's clipboard. The pause protocol uses
// it to hand the user the command that restores a paused agent's recorded
// commit; failures are downgraded to toasts by the caller.
type Clipboard interface {
	Copy(text string) error
}

// CopyDetachCommand places the checkout command for a paused agent's
// snapshot commit on cb, so the user can restore that exact state in any
// checkout with a single paste.
func CopyDetachCommand(cb Clipboard, sha string) error {
	if cb == nil || sha == "" {
		return nil
	}
	return cb.Copy("git checkout --detach " + sha)
}

// SystemClipboard implements Clipboard against the system clipboard. A
// supervisor frequently runs inside tmux or over SSH, where native
// clipboard tools write to the wrong machine's clipboard, so remote-looking
// sessions use OSC 52 escape sequences instead.
type SystemClipboard struct{}

// Copy copies text to the system clipboard.
func (SystemClipboard) Copy(text string) error {
	if remoteSession() {
		return copyViaOSC52(text)
	}
	return copyViaNative(text)
}

// remoteSession reports whether the terminal is reached through SSH or a
// terminal multiplexer, where only OSC 52 can reach the user's client.
func remoteSession() bool {
	for _, v := range []string{"SSH_TTY", "SSH_CLIENT", "SSH_CONNECTION", "TMUX", "STY"} {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// osc52Sequence builds the OSC 52 set-clipboard sequence for a base64
// payload. Under tmux the sequence is wrapped in a DCS passthrough (with
// inner escapes doubled) so tmux forwards it to the outer terminal instead
// of swallowing it.
func osc52Sequence(payload string, underTmux bool) string {
	seq := "\x1b]52;c;" + payload + "\x07"
	if underTmux {
		return "\x1bPtmux;" + strings.ReplaceAll(seq, "\x1b", "\x1b\x1b") + "\x1b\\"
	}
	return seq
}

func copyViaOSC52(text string) (err error) {
	payload := base64.StdEncoding.EncodeToString([]byte(text))
	seq := osc52Sequence(payload, os.Getenv("TMUX") != "")

	// Write to /dev/tty so the sequence reaches the terminal even when
	// stdout is redirected or an alt-screen UI owns it.
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open /dev/tty: %w", err)
	}
	defer func() {
		if closeErr := tty.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = tty.WriteString(seq)
	return err
}

// copyViaNative pipes text into the platform's clipboard tool.
func copyViaNative(text string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		cmd = exec.Command("pbcopy")
	} else {
		cmd = exec.Command("xclip", "-selection", "clipboard")
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
