package tcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Command
	}{
		{"data latest", "data", Command{Kind: CmdDataLatest}},
		{"data with time", "data 2026-08-01-10:30", Command{
			Kind: CmdDataAt,
			AsOf: time.Date(2026, 8, 1, 10, 30, 0, 0, time.Local),
		}},
		{"data with impossible time", "data 2026-13-99-99:99", Command{Kind: CmdUnknown}},
		{"data trailing junk", "data 2026-08-01-10:30 x", Command{Kind: CmdUnknown}},
		{"data uppercase", "DATA", Command{Kind: CmdUnknown}},
		{"add", "add TSLA", Command{Kind: CmdAdd, Arg: "TSLA"}},
		{"add missing arg", "add ", Command{Kind: CmdUnknown}},
		{"delete", "delete MSFT", Command{Kind: CmdDelete, Arg: "MSFT"}},
		{"report lowercase", "report", Command{Kind: CmdReport}},
		{"report mixed case", "RePoRt", Command{Kind: CmdReport}},
		{"trailing newline", "data\n", Command{Kind: CmdDataLatest}},
		{"empty", "", Command{Kind: CmdUnknown}},
		{"garbage", "hello there", Command{Kind: CmdUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestCommandKindName(t *testing.T) {
	assert.Equal(t, "data", CmdDataLatest.Name())
	assert.Equal(t, "data", CmdDataAt.Name())
	assert.Equal(t, "add", CmdAdd.Name())
	assert.Equal(t, "delete", CmdDelete.Name())
	assert.Equal(t, "report", CmdReport.Name())
	assert.Equal(t, "unknown", CmdUnknown.Name())
}
