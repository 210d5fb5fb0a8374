package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit codes returned by the cli.
const (
	CodeFailure = 1
	CodeUsage   = 2
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// Usagef reports invalid arguments or flags.
func Usagef(msg string, args ...interface{}) cli.ExitCoder {
	return Exit(CodeUsage, msg, args...)
}
