package ui

import (
	"os"

	"github.com/fatih/color"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
)

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(os.Stderr, format+"\n", a...)
}
