package cli_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskq/internal/backend"
	"github.com/dmitrymomot/taskq/internal/cli"
	"github.com/dmitrymomot/taskq/pkg/queue"
)

const at = "2023-11-14T22:13:20Z" // unix 1700000000

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := cli.NewRoot(cli.WithLogOutput(io.Discard))
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--definitions", "testdata/queues.yaml", "--backend", "memory"}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestQueues(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "queues")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"QUEUE", "DEDUPLICATION", "WINDOW"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"audit", "false", "-"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"rebuild_index", "true", "-"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"send_email", "true", "1m0s"}, strings.Fields(lines[3]))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  []string
	}{
		{
			name: "windowed queue",
			args: []string{"resolve", "send_email", `{"to":"user@example.com"}`, "--at", at},
			want: []string{
				"name: 7bb6cc70f77f591b17dcca8f2f482843-28333333",
				"path: projects/local/locations/local/queues/send_email/tasks/7bb6cc70f77f591b17dcca8f2f482843-28333333",
				"delay: 60s",
				"schedule_time: 2023-11-14T22:14:20Z",
			},
		},
		{
			name:  "payload from stdin",
			stdin: `{"to":"user@example.com"}`,
			args:  []string{"resolve", "send_email", "-", "--at", at},
			want:  []string{"name: 7bb6cc70f77f591b17dcca8f2f482843-28333333"},
		},
		{
			name: "window overrides delay",
			args: []string{"resolve", "send_email", `{"to":"user@example.com"}`, "--at", at, "--delay", "10s"},
			want: []string{"delay: 60s"},
		},
		{
			name: "explicit name keeps window suffix",
			args: []string{"resolve", "send_email", `{"to":"user@example.com"}`, "--at", at, "--name", "welcome"},
			want: []string{"name: welcome-28333333"},
		},
		{
			name: "content dedup without window",
			args: []string{"resolve", "rebuild_index", `{"id":42}`, "--at", at},
			want: []string{"name: 053d97b35951861fb2a956062b3a95dd", "delay: none"},
		},
		{
			name: "no dedup with delay",
			args: []string{"resolve", "audit", `{"id":42}`, "--at", at, "--delay", "90s"},
			want: []string{"name: <assigned by backend>", "delay: 90s", "schedule_time: 2023-11-14T22:14:50Z"},
		},
		{
			name: "unregistered queue",
			args: []string{"resolve", "unknown", `{"id":42}`, "--at", at},
			want: []string{"queue: unknown", "name: <assigned by backend>", "delay: none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := run(t, tt.stdin, tt.args...)
			require.NoError(t, err)
			for _, line := range tt.want {
				assert.Contains(t, out, line+"\n")
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "null payload", args: []string{"resolve", "audit", "null"}, want: queue.ErrPayloadNil},
		{name: "trailing data", args: []string{"resolve", "audit", `{"a":1} {"b":2}`}},
		{name: "invalid json", args: []string{"resolve", "audit", `{"a":`}},
		{name: "empty stdin", args: []string{"resolve", "audit"}},
		{name: "bad --at", args: []string{"resolve", "audit", `{}`, "--at", "yesterday"}},
		{name: "missing queue", args: []string{"resolve"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := run(t, "", tt.args...)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestSchedule(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "schedule", "rebuild_index", `{"id":42}`)
	require.NoError(t, err)
	assert.Contains(t, out, "name: 053d97b35951861fb2a956062b3a95dd\n")
	assert.Contains(t, out, "delay: none\n")
}

func TestUnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := run(t, "", "schedule", "audit", `{}`, "--backend", "sqs")
	assert.ErrorIs(t, err, backend.ErrUnknownBackend)
}

func TestMigrateMemory(t *testing.T) {
	t.Parallel()

	_, err := run(t, "", "migrate")
	assert.NoError(t, err)
}

func TestMissingDefinitions(t *testing.T) {
	t.Parallel()

	_, err := run(t, "", "queues", "--definitions", "testdata/missing.yaml")
	assert.Error(t, err)
}
