// Package handler implements the bot's chat commands. Handlers are
// transport-agnostic: the bot layer parses each Discord message into a
// Context and the handler replies through it.
package handler

import (
	"strconv"
	"strings"
)

// Replier sends a response back to the channel a command came from.
type Replier interface {
	Reply(text string) error
}

// User identifies the author of a command or a mentioned user.
type User struct {
	ID   int64
	Name string
	Bot  bool
}

// Context is one parsed command invocation.
type Context struct {
	Replier
	Author   User
	Args     []string
	Mentions []User
}

// parseAmount reads a positive strawberry amount from an argument.
func parseAmount(arg string) (int64, bool) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// firstAmount returns the first argument that parses as a positive
// amount. Mention tokens are skipped so argument order is forgiving.
func firstAmount(args []string) (int64, bool) {
	for _, a := range args {
		if strings.HasPrefix(a, "<@") {
			continue
		}
		if n, ok := parseAmount(a); ok {
			return n, true
		}
	}
	return 0, false
}
