// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// NewShellTransform compiles script into a transform executed by the mvdan/sh
// interpreter. The module text is fed on stdin and stdout becomes the new text. A
// non-zero exit status fails the transform with the script's stderr.
func NewShellTransform(script, dir string) (Transform, error) {
	if strings.TrimSpace(script) == "" {
		return nil, errors.New("empty shell script")
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "loader")
	if err != nil {
		return nil, fmt.Errorf("parse shell script: %w", err)
	}

	return func(text string) (string, error) {
		var stdout, stderr bytes.Buffer
		opts := []interp.RunnerOption{
			interp.StdIO(strings.NewReader(text), &stdout, &stderr),
		}
		if dir != "" {
			opts = append(opts, interp.Dir(dir))
		}

		runner, err := interp.New(opts...)
		if err != nil {
			return "", fmt.Errorf("create interpreter: %w", err)
		}

		if err := runner.Run(context.Background(), prog); err != nil {
			var exitStatus interp.ExitStatus
			if errors.As(err, &exitStatus) {
				return "", fmt.Errorf("exit status %d: %s", exitStatus, strings.TrimSpace(stderr.String()))
			}
			return "", fmt.Errorf("run shell script: %w", err)
		}
		return stdout.String(), nil
	}, nil
}
