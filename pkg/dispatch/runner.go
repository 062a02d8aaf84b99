package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sipeed/alfred/pkg/logger"
)

const (
	DefaultTimeout = 60 * time.Second

	// launchFailureCode mirrors the shell's "command not found" status.
	launchFailureCode = 127
	killedCode        = -1
	waitDelay         = 2 * time.Second
)

// Runner executes invocations as child processes.
type Runner struct {
	// Root is the working directory of every child.
	Root    string
	Timeout time.Duration
}

// Run executes inv and always returns a Result; timeouts, launch failures
// and unparseable output all become ok=false results.
func (r *Runner) Run(ctx context.Context, inv *Invocation) Result {
	argv := inv.Argv()
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, argv[0], argv[1:]...)
	if r.Root != "" {
		cmd.Dir = r.Root
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	prepareCommandForTreeControl(cmd)
	cmd.Cancel = func() error {
		return killCommandTree(cmd)
	}
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if ctxErr := cmdCtx.Err(); ctxErr != nil && err != nil {
		msg := "canceled"
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			msg = "timeout"
		}
		logger.WarnCF("dispatch", "Script did not finish", map[string]any{
			"cmd":     strings.Join(argv, " "),
			"reason":  msg,
			"timeout": timeout.String(),
		})
		res := Failure(msg)
		attachMeta(res, argv, killedCode, elapsed)
		return res
	}

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			logger.ErrorCF("dispatch", "Failed to launch script", map[string]any{
				"cmd":   strings.Join(argv, " "),
				"error": err.Error(),
			})
			res := Failure(err.Error())
			attachMeta(res, argv, launchFailureCode, elapsed)
			return res
		}
		code = exitErr.ExitCode()
	}

	out := strings.TrimSpace(DecodeOutput(stdout.Bytes()))
	errOut := strings.TrimSpace(DecodeOutput(stderr.Bytes()))

	res := RecoverResult(out, errOut)
	attachMeta(res, argv, code, elapsed)

	if code != 0 {
		if _, has := res["error"]; !has {
			res["error"] = fmt.Sprintf("process exited with code %d", code)
			res["stderr"] = errOut
		}
		res["ok"] = false
	}

	logger.DebugCF("dispatch", "Script finished", map[string]any{
		"cmd":         strings.Join(argv, " "),
		"returncode":  code,
		"ok":          res.OK(),
		"duration_ms": elapsed.Milliseconds(),
	})
	return res
}

func attachMeta(res Result, argv []string, code int, elapsed time.Duration) {
	meta := res.Meta()
	meta["cmd"] = argv
	meta["returncode"] = code
	meta["duration_ms"] = elapsed.Milliseconds()
}
