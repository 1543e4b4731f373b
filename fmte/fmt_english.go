// Package fmte prints English-formatted console output (digit grouping included) safely from many goroutines.
package fmte

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var p *message.Printer

var mx sync.Mutex // Shared mutex across stdout and stderr to ensure ordering across

var (
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
)

var normalPrint = true

var verbosePrint = false

func init() {
	p = message.NewPrinter(language.English)
}

// Off function turns off print functions within fmte package
func Off() {
	mx.Lock()
	normalPrint = false
	mx.Unlock()
}

// VerboseOn turns on verbose print functions within fmte package
func VerboseOn() {
	mx.Lock()
	verbosePrint = true
	mx.Unlock()
}

// SetOutput redirects normal and error output, returning a function that restores the previous writers
func SetOutput(stdout, stderr io.Writer) (restore func()) {
	mx.Lock()
	prevOut, prevErr := out, errOut
	out, errOut = stdout, stderr
	mx.Unlock()
	return func() {
		mx.Lock()
		out, errOut = prevOut, prevErr
		mx.Unlock()
	}
}

// Printf is goroutine-safe fmt.Printf for English
func Printf(format string, a ...any) {
	mx.Lock()
	if normalPrint {
		_, _ = p.Fprintf(out, format, a...)
	}
	mx.Unlock()
}

// PrintfV is goroutine-safe fmt.Printf for English (Verbose mode)
func PrintfV(format string, a ...any) {
	mx.Lock()
	if normalPrint && verbosePrint {
		_, _ = p.Fprintf(out, format, a...)
	}
	mx.Unlock()
}

// Print is a goroutine-safe fmt.Print for English
func Print(a ...any) {
	mx.Lock()
	if normalPrint {
		_, _ = p.Fprint(out, a...)
	}
	mx.Unlock()
}

// PrintfErr is goroutine-safe fmt.Printf to StdErr for English
func PrintfErr(format string, a ...any) {
	mx.Lock()
	_, _ = p.Fprintf(errOut, format, a...)
	mx.Unlock()
}

// Errors combines multiple errors into one that still matches each of them with errors.Is.
// It returns nil when errs holds no error.
func Errors(message string, errs []error) error {
	joined := errors.Join(errs...)
	if joined == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, joined)
}
