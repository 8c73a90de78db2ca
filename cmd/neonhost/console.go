package main

import (
	"github.com/dop251/goja_nodejs/console"
	"github.com/joeycumines/logiface"
)

// consolePrinter routes the page's console output into the logger.
type consolePrinter struct {
	log *logiface.Logger[logiface.Event]
}

var _ console.Printer = consolePrinter{}

func (x consolePrinter) Log(s string) {
	x.log.Info().
		Str(`source`, `console`).
		Log(s)
}

func (x consolePrinter) Warn(s string) {
	x.log.Warning().
		Str(`source`, `console`).
		Log(s)
}

func (x consolePrinter) Error(s string) {
	x.log.Err().
		Str(`source`, `console`).
		Log(s)
}
