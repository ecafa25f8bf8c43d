package pr

import (
	"fmt"

	"github.com/fatih/color"
)

// Палитра сообщений планировщика.
var (
	titleColor   = color.New(color.FgMagenta, color.Bold)
	headerColor  = color.New(color.FgCyan)
	promptColor  = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
	indexColor   = color.New(color.FgGreen)
)

// Title печатает заголовок (баннер, названия этапов).
func Title(format string, a ...any) {
	titleColor.Fprintln(Stdout(), fmt.Sprintf(format, a...))
}

// Header печатает подзаголовок списка.
func Header(format string, a ...any) {
	headerColor.Fprintln(Stdout(), fmt.Sprintf(format, a...))
}

// Success печатает подтверждение.
func Success(format string, a ...any) {
	successColor.Fprintln(Stdout(), fmt.Sprintf(format, a...))
}

// Warn печатает предупреждение или справочную строку.
func Warn(format string, a ...any) {
	warnColor.Fprintln(Stdout(), fmt.Sprintf(format, a...))
}

// Fail печатает сообщение об ошибке. Идёт в Stdout вместе с остальным диалогом.
func Fail(format string, a ...any) {
	failColor.Fprintln(Stdout(), fmt.Sprintf(format, a...))
}

// Item печатает строку нумерованного списка: "[3] name".
func Item(index int, text string) {
	fmt.Fprintf(Stdout(), "%s %s\n", indexColor.Sprintf("[%d]", index), text)
}

// Prompt окрашивает строку приглашения.
func Prompt(format string, a ...any) string {
	return promptColor.Sprintf(format, a...)
}
