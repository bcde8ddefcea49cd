package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"
)

// printlnFn and printFn are test seams for user-facing output.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
	clearFn   = func() { printFn("\033[H\033[2J") }
	nowFn     = time.Now
)

// execIface is the command surface the REPL drives. *App satisfies it;
// tests use a recording stub.
type execIface interface {
	state() replState
	decoyUser() string
	remember(line string)
	recent() []string

	Login(ctx context.Context, password string) error
	Logout(ctx context.Context)
	Panic(ctx context.Context)
	SendText(ctx context.Context, text string) error
	Urgent(ctx context.Context) error
	ClearHistory(ctx context.Context) error
	SendImage(ctx context.Context, path string) error
	ListFiles(ctx context.Context) error
	Pair(ctx context.Context, token string) error
	ConnectPeer(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads lines from scanner until EOF and dispatches them by the
// current state of a:
//
//	guest  - a harmless fake shell; "sudo connect" asks for the password
//	chat   - slash commands, "clear"/"qc", everything else is a message
//	decoy  - the duress shell; "logout" returns to guest
//
// Handler errors are not fatal; handlers log and print their own.
func runREPL(ctx context.Context, a execIface, promptFn func() string, scanner *bufio.Scanner) {
	for {
		printFn(promptFn())
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			a.remember(trimmed)
		}

		switch a.state() {
		case stateGuest:
			if strings.EqualFold(trimmed, sudoConnect) {
				challenge(ctx, a, scanner)
				continue
			}
			show(guestCommand(trimmed, nowFn()))

		case stateChat:
			chatCommand(ctx, a, trimmed)

		case stateDecoy:
			r := decoyCommand(trimmed, a.decoyUser(), a.recent())
			if r.Logout {
				a.Logout(ctx)
				printlnFn(bootLines[len(bootLines)-1])
				continue
			}
			show(r)
		}
	}
}

func show(r shellResult) {
	if r.Clear {
		clearFn()
	}
	for _, l := range r.Lines {
		printlnFn(l)
	}
}

func challenge(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	printFn("[sudo] password for user: ")
	pw, err := readSecret(scanner)
	if err != nil {
		printlnFn("sudo: incorrect password attempt.")
		return
	}
	if err := a.Login(ctx, pw); err != nil {
		time.Sleep(failDelay)
		printlnFn("sudo: incorrect password attempt.")
	}
}

func chatCommand(ctx context.Context, a execIface, line string) {
	if line == "" {
		return
	}
	lower := strings.ToLower(line)
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	if !strings.HasPrefix(line, "/") && lower != "clear" && lower != "qc" {
		_ = a.SendText(ctx, line)
		return
	}

	switch strings.ToLower(cmd) {
	case "/logout":
		a.Logout(ctx)
		clearFn()
		printlnFn(bootLines[len(bootLines)-1])
	case "clear", "/clear", "qc", "/qc":
		_ = a.ClearHistory(ctx)
	case "/urgent":
		_ = a.Urgent(ctx)
	case "/panic":
		clearFn()
		a.Panic(ctx)
	case "/img":
		_ = a.SendImage(ctx, arg)
	case "/files":
		_ = a.ListFiles(ctx)
	case "/pair":
		_ = a.Pair(ctx, arg)
	case "/connect":
		_ = a.ConnectPeer(ctx)
	case "/status":
		_ = a.Status(ctx)
	case "/help":
		printlnFn(chatHelp)
	default:
		printlnFn(fmt.Sprintf("bash: %s: command not found", line))
	}
}
