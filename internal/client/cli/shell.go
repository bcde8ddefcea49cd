package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const sudoConnect = "sudo connect"

var bootLines = []string{
	"Booting secure kernel v2.1.8...",
	"Initializing virtual terminal...",
	"Mounting encrypted filesystem...",
	"[OK] Started Encrypted Channel Service.",
	"[OK] Probing for secure peer connection...",
	"Found peer. Establishing handshake...",
	"Handshake successful. Exchanging keys...",
	"Session secured with AES-256-GCM.",
	"Secure session established.",
	" ",
	"Type 'sudo connect' to begin session.",
}

// shellResult is what a fake shell command produced. Clear asks the caller
// to wipe the screen before printing Lines.
type shellResult struct {
	Lines  []string
	Clear  bool
	Logout bool
}

func notFound(cmd string) shellResult {
	return shellResult{Lines: []string{fmt.Sprintf("bash: %s: command not found", cmd)}}
}

// guestCommand runs one line in the pre-login shell. The "sudo connect"
// line is handled by the REPL.
func guestCommand(line string, now time.Time) shellResult {
	trimmed := strings.TrimSpace(line)
	switch strings.ToLower(trimmed) {
	case "":
		return shellResult{}
	case "help":
		return shellResult{Lines: []string{"Basic commands: help, whoami, date, uname, clear, ls, pwd. Use 'sudo connect' to login."}}
	case "whoami":
		return shellResult{Lines: []string{"guest"}}
	case "date":
		return shellResult{Lines: []string{now.Format("Mon Jan 02 2006 15:04:05 GMT-0700 (MST)")}}
	case "uname":
		return shellResult{Lines: []string{"Linux tty-secure-host 2.1.8-generic x86_64"}}
	case "clear":
		return shellResult{Clear: true}
	case "ls":
		return shellResult{Lines: []string{"README.md  connect.sh"}}
	case "pwd":
		return shellResult{Lines: []string{"/home/guest"}}
	}
	return notFound(trimmed)
}

// decoyFS is the home directory shown under duress.
var decoyFS = map[string]string{
	".bash_history":    "ls\npwd\nclear",
	"docs/":            "",
	"src/":             "",
	"tests/":           "",
	"fibonacci.py":     "def fib(n):\n    a, b = 0, 1\n    for _ in range(n):\n        yield a\n        a, b = b, a + b",
	"project_plan.txt": "Initial project plan for TTY session app.",
}

var decoyHelp = "Available commands: logout, clear, ls, pwd, cat, echo, whoami, uname, df, python, git, history, help.\nTry running 'python fibonacci.py'"

// decoyCommand runs one line in the duress shell. history is newest first.
func decoyCommand(line, user string, history []string) shellResult {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return shellResult{}
	}
	fields := strings.Fields(trimmed)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "logout":
		return shellResult{Logout: true}
	case "clear", "qc":
		return shellResult{Clear: true}
	case "ls":
		return shellResult{Lines: []string{strings.Join(decoyList(hasArg(args, "-a")), "  ")}}
	case "pwd":
		return shellResult{Lines: []string{"/home/" + user}}
	case "cat":
		if len(args) == 0 {
			return shellResult{}
		}
		if _, ok := decoyFS[args[0]+"/"]; ok {
			return shellResult{Lines: []string{fmt.Sprintf("cat: %s: Is a directory", args[0])}}
		}
		if c, ok := decoyFS[args[0]]; ok {
			return shellResult{Lines: strings.Split(c, "\n")}
		}
		return shellResult{Lines: []string{fmt.Sprintf("cat: %s: No such file or directory", args[0])}}
	case "echo":
		return shellResult{Lines: []string{strings.TrimSpace(strings.TrimPrefix(trimmed, fields[0]))}}
	case "whoami":
		return shellResult{Lines: []string{user}}
	case "uname":
		return shellResult{Lines: []string{"Linux secure-host 5.4.0-109-generic #123-Ubuntu SMP Tue... x86_64"}}
	case "df":
		return shellResult{Lines: []string{
			"Filesystem     1K-blocks      Used Available Use% Mounted on",
			"udev            4041604         0   4041604   0% /dev",
			"tmpfs            815960      2300    813660   1% /run",
			"/dev/sda1      60483568  12083568  45299900  22% /",
		}}
	case "python":
		if len(args) == 1 && args[0] == "fibonacci.py" {
			return shellResult{Lines: []string{
				"Running script: fibonacci.py",
				"Generating sequence up to n=10...",
				"Result: 0, 1, 1, 2, 3, 5, 8, 13, 21, 34",
				"Script finished successfully.",
			}}
		}
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return shellResult{Lines: []string{fmt.Sprintf("python: can't open file '%s': [Errno 2] No such file or directory", name)}}
	case "git":
		if len(args) > 0 && args[0] == "status" {
			return shellResult{Lines: []string{
				"On branch main",
				"Your branch is up to date with 'origin/main'.",
				"",
				"nothing to commit, working tree clean",
			}}
		}
		sub := ""
		if len(args) > 0 {
			sub = args[0]
		}
		return shellResult{Lines: []string{fmt.Sprintf("git: '%s' is not a git command. See 'git --help'.", sub)}}
	case "history":
		lines := make([]string, 0, len(history))
		for i := len(history) - 1; i >= 0; i-- {
			lines = append(lines, fmt.Sprintf(" %d  %s", len(history)-i, history[i]))
		}
		return shellResult{Lines: lines}
	case "help":
		return shellResult{Lines: strings.Split(decoyHelp, "\n")}
	}
	return notFound(trimmed)
}

func decoyList(all bool) []string {
	names := make([]string, 0, len(decoyFS))
	for n := range decoyFS {
		n = strings.TrimSuffix(n, "/")
		if !all && strings.HasPrefix(n, ".") {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func hasArg(args []string, a string) bool {
	for _, x := range args {
		if x == a {
			return true
		}
	}
	return false
}

var fsckLines = []string{
	"fsck from util-linux 2.34",
	"e2fsck 1.45.5 (07-Jan-2020)",
	"/dev/sda1: recovering journal",
	"Checking inodes, blocks, and sizes...",
	"/dev/sda1: clean, 417853/30269440 files, 6088804/121064960 blocks",
}
