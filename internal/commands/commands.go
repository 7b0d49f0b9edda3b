// Package commands implements the '!'-prefixed interpreter forwarded to by
// a channel's send_message path (spec.md §4.4: "never persisted through the
// chat path"), grounded on the teacher's strings.Fields + switch dispatch
// idiom (pkg/server/command.go).
package commands

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/chordwave/lobby/internal/channel"
	"github.com/chordwave/lobby/internal/logging"
	"github.com/chordwave/lobby/internal/versions"
)

// Locator finds an online session by name, used by !where. Satisfied by
// internal/registry.Sessions structurally.
type Locator interface {
	LookupByName(name string) (channel.Member, bool)
}

// Interpreter handles '!'-prefixed channel messages and satisfies
// channel.Commands.
type Interpreter struct {
	locator Locator
}

func New(locator Locator) *Interpreter {
	return &Interpreter{locator: locator}
}

func (in *Interpreter) Handle(ctx context.Context, sender channel.Member, body string) {
	parts := strings.Fields(body)
	if len(parts) == 0 {
		return
	}
	verb := strings.ToLower(strings.TrimPrefix(parts[0], "!"))
	logging.Debugf("command: %s issued !%s", sender.Name(), verb)

	switch verb {
	case "help":
		in.reply(sender, "available commands: !help, !roll, !where <user>")
	case "roll":
		in.handleRoll(sender, parts[1:])
	case "where":
		in.handleWhere(sender, parts[1:])
	default:
		in.reply(sender, "unknown command: !"+verb)
	}
}

func (in *Interpreter) handleRoll(sender channel.Member, args []string) {
	max := 100
	if len(args) > 0 {
		if n, err := parsePositiveInt(args[0]); err == nil {
			max = n
		}
	}
	roll := rand.Intn(max) + 1
	in.reply(sender, fmt.Sprintf("%s rolls %d point(s)", sender.Name(), roll))
}

func (in *Interpreter) handleWhere(sender channel.Member, args []string) {
	if len(args) < 1 {
		in.reply(sender, "usage: !where <user>")
		return
	}
	target, ok := in.locator.LookupByName(args[0])
	if !ok {
		in.reply(sender, args[0]+" is not online")
		return
	}
	in.reply(sender, target.Name()+" is online")
}

func (in *Interpreter) reply(sender channel.Member, text string) {
	sender.Enqueue(versions.KindSendMessage, versions.SendMessageArgs{
		Sender: "chordwave",
		Text:   text,
		Target: sender.Name(),
	})
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("commands: empty integer")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("commands: invalid integer %q", s)
		}
		n = n*10 + int(r-'0')
	}
	if n <= 0 {
		return 0, fmt.Errorf("commands: non-positive integer %q", s)
	}
	return n, nil
}
