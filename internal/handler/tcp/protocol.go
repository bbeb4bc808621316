// Package tcp implements the line-oriented client protocol: one request per
// read, every reply JSON-encoded.
package tcp

import (
	"regexp"
	"strings"
	"time"
)

// CommandKind discriminates parsed client inputs.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdDataLatest
	CmdDataAt
	CmdAdd
	CmdDelete
	CmdReport
)

// Command is a parsed client request.
type Command struct {
	Kind CommandKind
	Arg  string    // ticker for CmdAdd/CmdDelete
	AsOf time.Time // query time for CmdDataAt
}

// QueryTimeLayout is the timestamp format accepted by the data command.
const QueryTimeLayout = "2006-01-02-15:04"

// Canned reply lines.
const (
	MsgUnrecognized    = "unrecognized inputs"
	MsgReportGenerated = "report generated"
	MsgReportFailed    = "server failed to generate report"
	MsgNoData          = "Server has no data"
	NoteNoTime         = "(calling data without time returns the latest data)"
	NoteFutureTime     = "(specifying time in the future, returns the latest data)"
	NoteBeforeData     = "(specifying time before any data exists)"
)

var dataAtPattern = regexp.MustCompile(`^data \d{4}-\d{2}-\d{2}-\d{2}:\d{2}$`)

// Parse classifies a raw client input. A data command whose timestamp
// matches the shape but is not a real calendar time parses as CmdUnknown.
func Parse(input string) Command {
	input = strings.TrimRight(input, "\r\n")

	switch {
	case dataAtPattern.MatchString(input):
		at, err := time.ParseInLocation(QueryTimeLayout, input[len("data "):], time.Local)
		if err != nil {
			return Command{Kind: CmdUnknown}
		}
		return Command{Kind: CmdDataAt, AsOf: at}
	case input == "data":
		return Command{Kind: CmdDataLatest}
	case strings.HasPrefix(input, "delete ") && len(input) > len("delete "):
		return Command{Kind: CmdDelete, Arg: fields(input)}
	case strings.HasPrefix(input, "add ") && len(input) > len("add "):
		return Command{Kind: CmdAdd, Arg: fields(input)}
	case strings.EqualFold(input, "report"):
		return Command{Kind: CmdReport}
	default:
		return Command{Kind: CmdUnknown}
	}
}

// fields extracts the first token after the command word.
func fields(input string) string {
	parts := strings.Split(input, " ")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// Name returns the command label used in logs and metrics.
func (k CommandKind) Name() string {
	switch k {
	case CmdDataLatest, CmdDataAt:
		return "data"
	case CmdAdd:
		return "add"
	case CmdDelete:
		return "delete"
	case CmdReport:
		return "report"
	default:
		return "unknown"
	}
}
