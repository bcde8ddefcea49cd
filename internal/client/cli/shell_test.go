package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuestCommand(t *testing.T) {
	now := time.Date(2024, 7, 2, 11, 30, 45, 0, time.UTC)

	tests := []struct {
		line  string
		want  []string
		clear bool
	}{
		{line: "help", want: []string{"Basic commands: help, whoami, date, uname, clear, ls, pwd. Use 'sudo connect' to login."}},
		{line: "WHOAMI", want: []string{"guest"}},
		{line: "date", want: []string{"Tue Jul 02 2024 11:30:45 GMT+0000 (UTC)"}},
		{line: "uname", want: []string{"Linux tty-secure-host 2.1.8-generic x86_64"}},
		{line: "ls", want: []string{"README.md  connect.sh"}},
		{line: " pwd ", want: []string{"/home/guest"}},
		{line: "clear", clear: true},
		{line: "", want: nil},
		{line: "rm -rf /", want: []string{"bash: rm -rf /: command not found"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := guestCommand(tt.line, now)
			assert.Equal(t, tt.want, got.Lines)
			assert.Equal(t, tt.clear, got.Clear)
			assert.False(t, got.Logout)
		})
	}
}

func TestDecoyCommand(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   []string
		clear  bool
		logout bool
	}{
		{name: "logout", line: "logout", logout: true},
		{name: "clear", line: "clear", clear: true},
		{name: "qc", line: "qc", clear: true},
		{name: "ls hides dotfiles", line: "ls", want: []string{"docs  fibonacci.py  project_plan.txt  src  tests"}},
		{name: "ls -a", line: "ls -a", want: []string{".bash_history  docs  fibonacci.py  project_plan.txt  src  tests"}},
		{name: "pwd", line: "pwd", want: []string{"/home/admin"}},
		{name: "whoami", line: "whoami", want: []string{"admin"}},
		{name: "cat file", line: "cat project_plan.txt", want: []string{"Initial project plan for TTY session app."}},
		{name: "cat dir", line: "cat docs", want: []string{"cat: docs: Is a directory"}},
		{name: "cat missing", line: "cat nope", want: []string{"cat: nope: No such file or directory"}},
		{name: "echo", line: "echo hello  world", want: []string{"hello  world"}},
		{name: "git status", line: "git status", want: []string{
			"On branch main",
			"Your branch is up to date with 'origin/main'.",
			"",
			"nothing to commit, working tree clean",
		}},
		{name: "git other", line: "git push", want: []string{"git: 'push' is not a git command. See 'git --help'."}},
		{name: "python missing", line: "python x.py", want: []string{"python: can't open file 'x.py': [Errno 2] No such file or directory"}},
		{name: "unknown", line: "sudo connect", want: []string{"bash: sudo connect: command not found"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decoyCommand(tt.line, "admin", nil)
			assert.Equal(t, tt.want, got.Lines)
			assert.Equal(t, tt.clear, got.Clear)
			assert.Equal(t, tt.logout, got.Logout)
		})
	}
}

func TestDecoyCommand_PythonAndHelp(t *testing.T) {
	got := decoyCommand("python fibonacci.py", "admin", nil)
	assert.Contains(t, got.Lines, "Result: 0, 1, 1, 2, 3, 5, 8, 13, 21, 34")

	help := decoyCommand("help", "admin", nil)
	assert.True(t, strings.HasPrefix(help.Lines[0], "Available commands: logout"))
}

func TestDecoyCommand_HistoryOldestFirst(t *testing.T) {
	got := decoyCommand("history", "admin", []string{"history", "pwd", "ls"})
	assert.Equal(t, []string{" 1  ls", " 2  pwd", " 3  history"}, got.Lines)
}
