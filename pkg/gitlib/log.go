package gitlib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// defaultGitBinary is looked up on PATH when LogReader.Binary is empty.
const defaultGitBinary = "git"

// LogReader reads history by running `git log -z --numstat` in the repository.
type LogReader struct {
	// Binary is the git executable. Empty uses "git" from PATH.
	Binary string

	// Timeout bounds the git invocation. Zero waits until git exits.
	Timeout time.Duration
}

// NewLogReader creates a LogReader with the given timeout.
func NewLogReader(timeout time.Duration) *LogReader {
	return &LogReader{Binary: defaultGitBinary, Timeout: timeout}
}

// ReadHistory runs git log once and parses its output. There are no retries:
// a failed or timed out invocation fails the whole read.
func (lr *LogReader) ReadHistory(ctx context.Context, repoPath string, opts LogOptions) ([]ChangeRecord, error) {
	if lr.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, lr.Timeout)
		defer cancel()
	}

	binary := lr.Binary
	if binary == "" {
		binary = defaultGitBinary
	}

	cmd := exec.CommandContext(ctx, binary, LogArgs(opts)...)
	cmd.Dir = repoPath

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrHistoryTimeout, lr.Timeout)
		}

		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = runErr.Error()
		}

		return nil, fmt.Errorf("%w: %s", ErrHistoryUnavailable, msg)
	}

	records, err := ParseLog(&stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHistoryUnavailable, err)
	}

	return records, nil
}

// LogArgs builds the git arguments for a NUL-terminated numstat log. Renames
// are disabled so every path is reported under its own name.
func LogArgs(opts LogOptions) []string {
	args := []string{"log", "-z", "--no-renames", logFormat, "--numstat"}

	if opts.Since != "" {
		args = append(args, "--since="+opts.Since)
	}

	if opts.Until != "" {
		args = append(args, "--until="+opts.Until)
	}

	return args
}
