package utils

import (
	"bufio"
	"os"
	"strings"
)

// ReadLineFromStdin reads one line into output, stripping the trailing
// newline. Used by the token CLI to prompt for the request token.
func ReadLineFromStdin(output *string) error {
	reader := bufio.NewReader(os.Stdin)
	o, err := reader.ReadString('\n')
	if err != nil {
		*output = ""
		return err
	}

	o = strings.TrimRight(o, "\r\n")
	*output = o
	return nil
}
