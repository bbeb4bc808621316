package tcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"QuantDesk/internal/domain/models"
	"QuantDesk/internal/domain/repository"
	"QuantDesk/pkg/logger"
)

// Engine is the analytics surface a session dispatches into.
type Engine interface {
	QueryData(ctx context.Context, asOf time.Time) ([]string, error)
	AddTicker(ctx context.Context, sym string) error
	RemoveTicker(ctx context.Context, sym string) error
	GenerateReport(ctx context.Context) error
}

// Add and delete status codes sent to clients.
const (
	statusOK          = 0
	statusServerError = 1
	statusBadTicker   = 2
)

const maxMessageSize = 4096

// Session serves one client connection: one request per read, one
// JSON-encoded reply per request.
type Session struct {
	conn    net.Conn
	engine  Engine
	log     *logger.Logger
	metrics repository.Metrics
	now     func() time.Time
}

// NewSession wraps an accepted connection.
func NewSession(conn net.Conn, engine Engine, log *logger.Logger, metrics repository.Metrics) *Session {
	return &Session{
		conn:    conn,
		engine:  engine,
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
}

// Serve processes requests until the client disconnects or a transport
// error occurs. Only this session is affected by either.
func (s *Session) Serve(ctx context.Context) {
	defer s.conn.Close()
	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()

	remote := s.conn.RemoteAddr().String()
	s.log.Info("client connected", logger.String("remote", remote))

	buf := make([]byte, maxMessageSize)
	for {
		n, err := s.conn.Read(buf)
		if err != nil {
			s.log.Info("client disconnected",
				logger.String("remote", remote), logger.Error(err))
			return
		}

		reply := s.dispatch(ctx, string(buf[:n]))
		if err := s.send(reply); err != nil {
			s.metrics.RecordError("session_write")
			s.log.Warn("reply write failed",
				logger.String("remote", remote), logger.Error(err))
			return
		}
	}
}

// dispatch runs one command and produces its reply value.
func (s *Session) dispatch(ctx context.Context, input string) interface{} {
	cmd := Parse(input)
	start := s.now()

	var reply interface{}
	status := "ok"
	switch cmd.Kind {
	case CmdDataLatest:
		reply = s.queryData(ctx, s.now(), NoteNoTime)
	case CmdDataAt:
		if cmd.AsOf.After(s.now()) {
			reply = s.queryData(ctx, s.now(), NoteFutureTime)
		} else {
			reply = s.queryData(ctx, cmd.AsOf, "")
		}
	case CmdAdd:
		reply = s.addTicker(ctx, cmd.Arg)
		if reply != statusOK {
			status = "error"
		}
	case CmdDelete:
		reply = s.removeTicker(ctx, cmd.Arg)
		if reply != statusOK {
			status = "error"
		}
	case CmdReport:
		if err := s.engine.GenerateReport(ctx); err != nil {
			s.log.Error("report generation failed", logger.Error(err))
			reply = MsgReportFailed
			status = "error"
		} else {
			reply = MsgReportGenerated
		}
	default:
		reply = MsgUnrecognized
		status = "error"
	}

	s.metrics.RecordCommand(cmd.Kind.Name(), status)
	s.metrics.RecordLatency("command", time.Since(start).Seconds())
	return reply
}

// queryData answers a data command, attaching the informational note when
// one applies.
func (s *Session) queryData(ctx context.Context, asOf time.Time, note string) []string {
	lines, err := s.engine.QueryData(ctx, asOf)
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			return []string{MsgNoData, NoteBeforeData}
		}
		s.log.Error("data query failed", logger.Error(err))
		return []string{MsgNoData, NoteBeforeData}
	}
	if note != "" {
		lines = append(lines, note)
	}
	return lines
}

func (s *Session) addTicker(ctx context.Context, sym string) int {
	err := s.engine.AddTicker(ctx, sym)
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, models.ErrInvalidTicker):
		return statusBadTicker
	default:
		s.log.Error("add ticker failed", logger.String("ticker", sym), logger.Error(err))
		return statusServerError
	}
}

func (s *Session) removeTicker(ctx context.Context, sym string) int {
	err := s.engine.RemoveTicker(ctx, sym)
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, models.ErrTickerNotFound):
		return statusBadTicker
	default:
		s.log.Error("remove ticker failed", logger.String("ticker", sym), logger.Error(err))
		return statusServerError
	}
}

// send writes the JSON-encoded reply as a single message.
func (s *Session) send(reply interface{}) error {
	payload, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	return nil
}
