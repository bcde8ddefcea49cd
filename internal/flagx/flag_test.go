package flagx

import (
	"flag"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clientFlags = []string{"-a", "-k", "-l", "-S", "-p"}

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "keeps own flags with values",
			args: []string{"-a", "localhost:50051", "-c", "client.json", "-k", "key"},
			want: []string{"-a", "localhost:50051", "-k", "key"},
		},
		{
			name: "equals form",
			args: []string{"-l=/tmp/tty.log", "-z=1"},
			want: []string{"-l=/tmp/tty.log"},
		},
		{
			name: "repeated stun flag keeps order",
			args: []string{"-S", "stun:a:3478", "-S", "stun:b:3478"},
			want: []string{"-S", "stun:a:3478", "-S", "stun:b:3478"},
		},
		{
			name: "test runner flags dropped",
			args: []string{"-test.v", "-test.run", "TestX", "-p", "tok"},
			want: []string{"-p", "tok"},
		},
		{
			name: "dangling flag kept without value",
			args: []string{"-k"},
			want: []string{"-k"},
		},
		{
			name: "next dash token is not a value",
			args: []string{"-p", "-a=host:1"},
			want: []string{"-p", "-a=host:1"},
		},
		{
			name: "nothing recognised",
			args: []string{"positional", "-x"},
			want: []string{},
		},
		{
			name: "empty",
			args: nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, clientFlags)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("FilterArgs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterArgs_ResultParses(t *testing.T) {
	var addr, key string
	var stun StringList
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&addr, "a", "", "")
	fs.StringVar(&key, "k", "", "")
	fs.Var(&stun, "S", "")

	args := []string{"-c", "x.json", "-a", "h:1", "-S", "stun:a:1,stun:b:2", "-k", "secret", "-unknown"}
	require.NoError(t, fs.Parse(FilterArgs(args, []string{"-a", "-k", "-S"})))

	assert.Equal(t, "h:1", addr)
	assert.Equal(t, "secret", key)
	assert.Equal(t, StringList{"stun:a:1", "stun:b:2"}, stun)
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"ttychat", "-c", "/etc/ttychat/client.json"}, "/etc/ttychat/client.json"},
		{[]string{"ttychat", "-config", "/etc/ttychat/server.json"}, "/etc/ttychat/server.json"},
		{[]string{"ttychat", "-c", "one.json", "-config", "two.json"}, "two.json"},
		{[]string{"ttychat", "-a", "host:1"}, ""},
	}
	for _, tt := range tests {
		os.Args = tt.args
		assert.Equal(t, tt.want, JsonConfigFlags(), "%v", tt.args)
	}
}

func TestJsonConfigFlagsFrom(t *testing.T) {
	assert.Equal(t, "a.json", JsonConfigFlagsFrom([]string{"-a", "host:1", "-c", "a.json"}))
	assert.Equal(t, "b.json", JsonConfigFlagsFrom([]string{"-config=b.json"}))
	assert.Empty(t, JsonConfigFlagsFrom(nil))
}

func TestStringList(t *testing.T) {
	var l StringList
	assert.Empty(t, l.String())

	require.NoError(t, l.Set("stun:a:1, stun:b:2"))
	require.NoError(t, l.Set("stun:c:3"))
	require.NoError(t, l.Set(" , "))

	assert.Equal(t, StringList{"stun:a:1", "stun:b:2", "stun:c:3"}, l)
	assert.Equal(t, "stun:a:1,stun:b:2,stun:c:3", l.String())

	var nilList *StringList
	assert.Empty(t, nilList.String())
}
