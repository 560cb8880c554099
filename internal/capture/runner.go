package capture

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner lets tests stub the camera command.
type Runner interface {
	Run(ctx context.Context, name string, log logrus.FieldLogger, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, log logrus.FieldLogger, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	log.WithField("cmd_line", strings.Join(append([]string{name}, args...), " ")).Debug("Running command")

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	fields := logrus.Fields{
		"cmd":         name,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["stderr"] = truncate(errb.String(), 8<<10)
		log.WithFields(fields).WithError(err).Error("Command failed")
	} else {
		fields["stdout_bytes"] = out.Len()
		log.WithFields(fields).Debug("Command finished")
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
