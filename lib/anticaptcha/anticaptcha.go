// Package anticaptcha turns captcha images into text through the
// anti-captcha.com api.
package anticaptcha

import (
	"context"
	"fmt"
)

type Outcome int

const (
	OutcomeSolved Outcome = iota
	// the service gave up on the image, asking again with a fresh captcha may work
	OutcomeUnsolved
	// the service could not be used at all (bad key, no balance, network, ...)
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSolved:
		return "solved"
	case OutcomeUnsolved:
		return "unsolved"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is the answer for a single captcha image. Text is only set when
// Outcome is OutcomeSolved, Err explains the other two outcomes.
type Result struct {
	Outcome Outcome
	Text    string
	Err     error
}

func Solved(text string) Result {
	return Result{Outcome: OutcomeSolved, Text: text}
}

func Unsolved(reason error) Result {
	return Result{Outcome: OutcomeUnsolved, Err: reason}
}

func Failed(err error) Result {
	return Result{Outcome: OutcomeFailed, Err: err}
}

// Solver reads the captcha image stored at imagePath and returns its text.
type Solver interface {
	Solve(ctx context.Context, imagePath string) Result
}

type SolverFunc func(ctx context.Context, imagePath string) Result

func (f SolverFunc) Solve(ctx context.Context, imagePath string) Result {
	return f(ctx, imagePath)
}
