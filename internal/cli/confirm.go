package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"journey/internal/app"
)

// prompt asks a yes/no question on the command's streams. Anything but an
// explicit yes, including end of input, is a no.
func prompt(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// importConfirmer decides import overwrites from --yes or an interactive
// prompt.
func importConfirmer(cmd *cobra.Command, yes bool) app.Confirmer {
	return app.ConfirmFunc(func(existing, incoming int) bool {
		if yes {
			return true
		}
		return prompt(cmd, fmt.Sprintf("Replace %d existing entries with %d imported?", existing, incoming))
	})
}
