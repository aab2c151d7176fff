package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to; App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Refresh(ctx context.Context) error
	UploadAvatar(ctx context.Context, args []string) error
	ListProjects(ctx context.Context) error
	ShowProject(ctx context.Context, args []string) error
	CreateProject(ctx context.Context) error
	JoinProject(ctx context.Context, args []string) error
}

const (
	helpAnonymous = "Available commands: register, login, projects, project <id>, exit"
	helpLoggedIn  = "Available commands: me, passwd, avatar <file>, refresh, projects, project <id>, newproject, join <id>, logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a
// until EOF or "exit"/"quit". Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("ndh %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "me":
			cmdErr = a.Me(ctx)
		case "passwd":
			cmdErr = a.ChangePassword(ctx)
		case "refresh":
			cmdErr = a.Refresh(ctx)
		case "avatar":
			cmdErr = a.UploadAvatar(ctx, args)
		case "projects", "l":
			cmdErr = a.ListProjects(ctx)
		case "project":
			cmdErr = a.ShowProject(ctx, args)
		case "newproject":
			cmdErr = a.CreateProject(ctx)
		case "join":
			cmdErr = a.JoinProject(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
