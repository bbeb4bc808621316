package tcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantDesk/internal/domain/models"
	"QuantDesk/pkg/logger"
)

type fakeEngine struct {
	lines     []string
	queryErr  error
	addErr    error
	removeErr error
	reportErr error

	lastAsOf time.Time
}

func (f *fakeEngine) QueryData(_ context.Context, asOf time.Time) ([]string, error) {
	f.lastAsOf = asOf
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return append([]string(nil), f.lines...), nil
}

func (f *fakeEngine) AddTicker(context.Context, string) error    { return f.addErr }
func (f *fakeEngine) RemoveTicker(context.Context, string) error { return f.removeErr }
func (f *fakeEngine) GenerateReport(context.Context) error       { return f.reportErr }

type nopMetrics struct{}

func (nopMetrics) RecordCommand(string, string)    {}
func (nopMetrics) SessionOpened()                  {}
func (nopMetrics) SessionClosed()                  {}
func (nopMetrics) RecordRefresh(string)            {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) DropSymbol(string)               {}
func (nopMetrics) SetTrackedTickers(int)           {}
func (nopMetrics) RecordLatency(string, float64)   {}

// roundTrip sends one request over a pipe-backed session and returns the raw
// reply bytes.
func roundTrip(t *testing.T, engine Engine, request string) []byte {
	t.Helper()
	server, client := net.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		NewSession(server, engine, logger.Nop(), nopMetrics{}).Serve(ctx)
		close(done)
	}()

	require.NoError(t, client.SetDeadline(time.Now().Add(2*time.Second)))
	_, err := client.Write([]byte(request))
	require.NoError(t, err)

	buf := make([]byte, 4096)
	n, err := client.Read(buf)
	require.NoError(t, err)

	client.Close()
	<-done
	return buf[:n]
}

func TestSessionDataLatest(t *testing.T) {
	engine := &fakeEngine{lines: []string{"AAPL   5,1", "MSFT   30,0"}}
	reply := roundTrip(t, engine, "data")

	var lines []string
	require.NoError(t, json.Unmarshal(reply, &lines))
	assert.Equal(t, []string{"AAPL   5,1", "MSFT   30,0", NoteNoTime}, lines)
}

func TestSessionDataAtPastTime(t *testing.T) {
	engine := &fakeEngine{lines: []string{"AAPL   5,1"}}
	reply := roundTrip(t, engine, "data 2020-01-02-10:30")

	var lines []string
	require.NoError(t, json.Unmarshal(reply, &lines))
	assert.Equal(t, []string{"AAPL   5,1"}, lines)
	assert.Equal(t, time.Date(2020, 1, 2, 10, 30, 0, 0, time.Local), engine.lastAsOf)
}

func TestSessionDataFutureTime(t *testing.T) {
	engine := &fakeEngine{lines: []string{"AAPL   5,1"}}
	future := time.Now().Add(24 * time.Hour).Format(QueryTimeLayout)
	reply := roundTrip(t, engine, "data "+future)

	var lines []string
	require.NoError(t, json.Unmarshal(reply, &lines))
	require.Len(t, lines, 2)
	assert.Equal(t, NoteFutureTime, lines[1])
	assert.True(t, engine.lastAsOf.Before(time.Now().Add(time.Minute)))
}

func TestSessionDataNoData(t *testing.T) {
	engine := &fakeEngine{queryErr: models.ErrNoData}
	reply := roundTrip(t, engine, "data 2020-01-02-10:30")

	var lines []string
	require.NoError(t, json.Unmarshal(reply, &lines))
	assert.Equal(t, []string{MsgNoData, NoteBeforeData}, lines)
}

func TestSessionAddStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ok", nil, "0"},
		{"invalid ticker", fmt.Errorf("validate: %w", models.ErrInvalidTicker), "2"},
		{"server error", errors.New("boom"), "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := roundTrip(t, &fakeEngine{addErr: tt.err}, "add TSLA")
			assert.Equal(t, tt.want, string(reply))
		})
	}
}

func TestSessionDeleteStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ok", nil, "0"},
		{"not found", fmt.Errorf("remove: %w", models.ErrTickerNotFound), "2"},
		{"server error", errors.New("boom"), "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := roundTrip(t, &fakeEngine{removeErr: tt.err}, "delete MSFT")
			assert.Equal(t, tt.want, string(reply))
		})
	}
}

func TestSessionReport(t *testing.T) {
	reply := roundTrip(t, &fakeEngine{}, "report")
	assert.Equal(t, `"report generated"`, string(reply))

	reply = roundTrip(t, &fakeEngine{reportErr: errors.New("boom")}, "report")
	assert.Equal(t, `"server failed to generate report"`, string(reply))
}

func TestSessionUnrecognized(t *testing.T) {
	reply := roundTrip(t, &fakeEngine{}, "hello there")
	assert.Equal(t, `"unrecognized inputs"`, string(reply))
}

func TestListenerServesMultipleClients(t *testing.T) {
	engine := &fakeEngine{lines: []string{"AAPL   5,1"}}
	l := NewListener("127.0.0.1:0", engine, logger.Nop(), nopMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Start(ctx))
	defer l.Stop()

	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", l.Addr().String())
		require.NoError(t, err)
		require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

		_, err = conn.Write([]byte(`report`))
		require.NoError(t, err)

		buf := make([]byte, 256)
		n, err := conn.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, `"report generated"`, string(buf[:n]))
		conn.Close()
	}
}

type acceptStep struct {
	conn net.Conn
	err  error
}

// scriptedListener replays a fixed accept sequence, then reports closed.
type scriptedListener struct {
	steps chan acceptStep
}

func (s *scriptedListener) Accept() (net.Conn, error) {
	st, ok := <-s.steps
	if !ok {
		return nil, net.ErrClosed
	}
	return st.conn, st.err
}

func (s *scriptedListener) Close() error   { return nil }
func (s *scriptedListener) Addr() net.Addr { return &net.TCPAddr{} }

func TestAcceptLoopSurvivesTransientError(t *testing.T) {
	engine := &fakeEngine{}
	l := NewListener("", engine, logger.Nop(), nopMetrics{})

	server, client := net.Pipe()
	steps := make(chan acceptStep, 2)
	steps <- acceptStep{err: errors.New("accept tcp: too many open files")}
	steps <- acceptStep{conn: server}
	close(steps)
	l.ln = &scriptedListener{steps: steps}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.wg.Add(1)
	go l.acceptLoop(ctx)

	// the connection accepted after the failure is still served
	require.NoError(t, client.SetDeadline(time.Now().Add(2*time.Second)))
	_, err := client.Write([]byte(`report`))
	require.NoError(t, err)
	buf := make([]byte, 256)
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, `"report generated"`, string(buf[:n]))

	client.Close()
	l.wg.Wait()
}
