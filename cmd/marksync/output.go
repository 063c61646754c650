package main

import (
	"fmt"
	"os"
)

func printSuccess(format string, args ...any) {
	fmt.Fprintln(os.Stderr, "✓ "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, "✗ "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(os.Stderr, "⚠ "+fmt.Sprintf(format, args...))
}
