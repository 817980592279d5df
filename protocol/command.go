package protocol

import "strings"

// CommandSigil prefixes chat text that should be parsed as a command.
const CommandSigil = "/"

// Known command names. Unknown commands get an informational reply, never a
// protocol error.
const (
	CmdHelp     = "help"
	CmdJoin     = "join"
	CmdSwap     = "swap"
	CmdSpectate = "spectate"
	CmdRestart  = "restart"
	CmdDebug    = "debug"
)

// Command is a parsed "/name arg" chat command.
type Command struct {
	Name string
	Arg  string
}

// ParseCommand splits chat text into a command when it starts with the
// sigil. The second return is false for plain chat.
func ParseCommand(text string) (Command, bool) {
	if !strings.HasPrefix(text, CommandSigil) {
		return Command{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(text, CommandSigil))
	if len(fields) == 0 {
		return Command{}, false
	}
	cmd := Command{Name: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		cmd.Arg = fields[1]
	}
	return cmd, true
}
