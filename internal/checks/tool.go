package checks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Tool is an external command. Arguments may contain {name} placeholders that
// are substituted per invocation.
type Tool struct {
	Command []string
}

// Configured reports whether the tool has a command.
func (t Tool) Configured() bool { return len(t.Command) > 0 }

// Expand returns the command with placeholders substituted.
func (t Tool) Expand(vars map[string]string) []string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	out := make([]string, len(t.Command))
	for i, a := range t.Command {
		out[i] = r.Replace(a)
	}
	return out
}

// Run executes the tool and returns its stdout. A non-zero exit becomes an
// error carrying the tail of stderr.
func (t Tool) Run(ctx context.Context, vars map[string]string) ([]byte, error) {
	if !t.Configured() {
		return nil, errors.New("no command configured")
	}
	args := t.Expand(vars)
	logrus.WithField("cmd", strings.Join(args, " ")).Debug("running tool")
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 400 {
			msg = "..." + msg[len(msg)-400:]
		}
		if msg != "" {
			return stdout.Bytes(), fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w", args[0], err)
	}
	return stdout.Bytes(), nil
}
