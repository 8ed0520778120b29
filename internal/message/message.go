// Package message supplies the optional custom intro that precedes the
// weekly announcement. The interactive provider opens the operator's
// editor; the static provider carries a flag value through unchanged.
package message

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"bonjourarcade/pkg/logx"
)

// ErrAborted means the operator chose not to send. Callers treat it as
// a graceful no-op, not a failure.
var ErrAborted = errors.New("message aborted")

// Provider yields the custom intro text. An empty string with a nil
// error means "no custom intro".
type Provider interface {
	Message(ctx context.Context) (string, error)
}

// Static returns a fixed message. Used when the intro comes from a flag.
type Static string

func (s Static) Message(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// Editor collects the message interactively through $EDITOR, then asks
// for confirmation on the terminal.
type Editor struct {
	Log logx.Logger

	// GameTitle seeds the template comment so the operator knows which
	// game the intro is for.
	GameTitle string

	// In and Out default to the process terminal.
	In  io.Reader
	Out io.Writer

	// RunEditor overrides the editor invocation (tests).
	RunEditor func(ctx context.Context, path string) error
}

const editorTemplate = `# Cette semaine, Plinko a choisi : %s
#
# Écrivez votre message d'introduction ci-dessous.
# Les lignes commençant par '#' seront ignorées.
# Laissez vide pour annuler l'envoi.
`

func (e *Editor) Message(ctx context.Context) (string, error) {
	in := e.In
	if in == nil {
		in = os.Stdin
	}
	out := e.Out
	if out == nil {
		out = os.Stdout
	}

	f, err := os.CreateTemp("", "bonjourarcade-intro-*.txt")
	if err != nil {
		return "", fmt.Errorf("create message file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := fmt.Fprintf(f, editorTemplate, e.GameTitle); err != nil {
		f.Close()
		return "", fmt.Errorf("write message template: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	run := e.RunEditor
	if run == nil {
		run = runEditor
	}
	if err := run(ctx, path); err != nil {
		return "", fmt.Errorf("run editor: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read message file: %w", err)
	}
	msg := stripComments(string(raw))
	if msg == "" {
		e.Log.Info("empty message, aborting")
		return "", ErrAborted
	}

	fmt.Fprintf(out, "\nMessage :\n%s\n\nEnvoyer ? [o/N] ", msg)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "o" && answer != "oui" && answer != "y" && answer != "yes" {
		e.Log.Info("send not confirmed, aborting")
		return "", ErrAborted
	}
	return msg, nil
}

// stripComments drops '#' lines and trims the result.
func stripComments(raw string) string {
	var keep []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		keep = append(keep, line)
	}
	return strings.TrimSpace(strings.Join(keep, "\n"))
}

func runEditor(ctx context.Context, path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
