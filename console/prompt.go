// Package console implements the interactive side of the employee
// manager: validated prompts, the menu loop and record formatting.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	// ErrCancelled is returned when input ends (EOF) while prompting
	ErrCancelled = errors.New("input cancelled")
	// ErrTooManyAttempts is returned after Prompter.MaxAttempts invalid answers
	ErrTooManyAttempts = errors.New("too many invalid attempts")
)

type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// Abort wraps an error returned from a check function so that
// the prompt stops instead of asking again
func Abort(err error) error {
	if err == nil {
		return nil
	}
	return &abortError{err: err}
}

type Prompter struct {
	r *bufio.Reader
	w io.Writer
	// MaxAttempts limits how many times we ask after invalid input.
	// 0 means no limit.
	MaxAttempts int
}

func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{
		r: bufio.NewReader(r),
		w: w,
	}
}

func (p *Prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// readLine returns next line without the line ending.
// A last line without '\n' is still returned.
func (p *Prompter) readLine() (string, error) {
	s, err := p.r.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			return "", err
		}
		if s == "" {
			return "", ErrCancelled
		}
	}
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, nil
}

// ask prints prompt and reads answers until parse accepts one
func (p *Prompter) ask(prompt string, parse func(s string) error) error {
	for attempt := 1; ; attempt++ {
		p.printf("%s", prompt)
		s, err := p.readLine()
		if err != nil {
			return err
		}
		err = parse(s)
		if err == nil {
			return nil
		}
		var ae *abortError
		if errors.As(err, &ae) {
			return ae.err
		}
		p.printf("%s\n", retryMessage(err))
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return ErrTooManyAttempts
		}
	}
}

var (
	errNotInt   = errors.New("not an integer")
	errNotFloat = errors.New("not a number")
)

// retryMessage is shown after an invalid answer, before asking again
func retryMessage(err error) string {
	switch {
	case errors.Is(err, errNotInt):
		return "Invalid input. Please enter an integer."
	case errors.Is(err, errNotFloat):
		return "Invalid input. Please enter a number."
	}
	return fmt.Sprintf("Error: %s. Please try again.", err)
}

// IntWhere asks for an integer until check accepts it. check can be nil.
func (p *Prompter) IntWhere(prompt string, check func(n int64) error) (int64, error) {
	var res int64
	err := p.ask(prompt, func(s string) error {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return errNotInt
		}
		if check != nil {
			if err = check(n); err != nil {
				return err
			}
		}
		res = n
		return nil
	})
	return res, err
}

func (p *Prompter) Int(prompt string) (int64, error) {
	return p.IntWhere(prompt, nil)
}

// FloatWhere asks for a number until check accepts it. check can be nil.
func (p *Prompter) FloatWhere(prompt string, check func(f float64) error) (float64, error) {
	var res float64
	err := p.ask(prompt, func(s string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return errNotFloat
		}
		if check != nil {
			if err = check(f); err != nil {
				return err
			}
		}
		res = f
		return nil
	})
	return res, err
}

func (p *Prompter) Float(prompt string) (float64, error) {
	return p.FloatWhere(prompt, nil)
}

// truncate cuts s to at most maxLen bytes without splitting a rune
func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// LineWhere asks for a line of text until check accepts it.
// Text longer than maxLen bytes is truncated (0 means no limit).
func (p *Prompter) LineWhere(prompt string, maxLen int, check func(s string) error) (string, error) {
	var res string
	err := p.ask(prompt, func(s string) error {
		s = truncate(s, maxLen)
		if check != nil {
			if err := check(s); err != nil {
				return err
			}
		}
		res = s
		return nil
	})
	return res, err
}

func (p *Prompter) Line(prompt string, maxLen int) (string, error) {
	return p.LineWhere(prompt, maxLen, nil)
}

// WaitForEnter blocks until user presses Enter
func (p *Prompter) WaitForEnter() error {
	p.printf("\nPress Enter to continue...")
	_, err := p.readLine()
	return err
}
