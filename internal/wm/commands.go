package wm

import "fmt"

// MoveCommand moves workspace num to output.
func MoveCommand(num int64, output string) string {
	return fmt.Sprintf(`[workspace="%d"] move workspace to output %s`, num, output)
}

// FocusCommand focuses workspace num.
func FocusCommand(num int64) string {
	return fmt.Sprintf("workspace %d", num)
}
