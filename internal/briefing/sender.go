// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package briefing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrSenderUnavailable reports that the messaging CLI could not be
// located.
var ErrSenderUnavailable = errors.New("openclaw CLI not available")

const (
	binOpenclaw    = "openclaw"
	defaultChannel = "feishu"
	sendTimeout    = 30 * time.Second
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) (stdout string, err error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", err
		}
		return "", fmt.Errorf("%w: %s", err, msg)
	}
	return stdout.String(), nil
}

var defaultExec executor = &osExecutor{}

// Sender delivers rendered briefings through the openclaw messaging CLI.
type Sender struct {
	bin     string
	channel string
	target  string
	exec    executor
}

// NewSender locates the messaging binary and binds it to the configured
// channel and target. Returns ErrSenderUnavailable when the binary is
// missing; the target is required.
func NewSender(channel, target string) (*Sender, error) {
	return newSender(channel, target, defaultExec)
}

func newSender(channel, target string, exec executor) (*Sender, error) {
	if target == "" {
		return nil, fmt.Errorf("delivery target not configured")
	}
	if channel == "" {
		channel = defaultChannel
	}
	bin, err := exec.LookPath(binOpenclaw)
	if err != nil || bin == "" {
		return nil, ErrSenderUnavailable
	}
	return &Sender{bin: bin, channel: channel, target: target, exec: exec}, nil
}

// Send delivers one message.
func (s *Sender) Send(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("refusing to send empty message")
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.exec.Run(ctx, s.bin, "message", "send",
		"--channel", s.channel, "--target", s.target, "--message", message)
	if err != nil {
		return fmt.Errorf("sending briefing: %w", err)
	}
	return nil
}
