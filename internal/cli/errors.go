package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrUsage — неверный вызов CLI: неизвестная команда, нет аргумента, плохой флаг.
var ErrUsage = errors.New("usage error")

// UsageError — ошибка вызова с текстом usage нужной команды.
type UsageError struct {
	Msg   string
	Usage string
}

// Error реализует интерфейс error.
func (e *UsageError) Error() string {
	return e.Msg
}

// Is позволяет проверять errors.Is(err, ErrUsage).
func (e *UsageError) Is(target error) bool {
	return target == ErrUsage
}

func newUsageError(cmd *cobra.Command, format string, args ...any) *UsageError {
	return &UsageError{
		Msg:   fmt.Sprintf(format, args...),
		Usage: cmd.UsageString(),
	}
}
