package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// HandlerFunc handles one command. The returned value is marshalled as the
// raw result; a returned error is encoded as a structured RPC error carrying
// its taxonomy code.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

type Server struct {
	name     string
	logger   *logger.Logger
	handlers map[string]HandlerFunc

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

func NewServer(name string, logger *logger.Logger) *Server {
	return &Server{
		name:     name,
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
	}
}

func (s *Server) Name() string {
	return s.name
}

// Handle registers the handler for one command. Registration happens during
// service construction, before ListenAndServe.
func (s *Server) Handle(cmd string, h HandlerFunc) {
	if _, exists := s.handlers[cmd]; exists {
		panic(fmt.Sprintf("rpc: duplicate handler for command %q", cmd))
	}
	s.handlers[cmd] = h
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc: listen %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()

	s.logger.Info("RPC server listening",
		zap.String("service", s.name),
		zap.String("addr", lis.Addr().String()),
	)

	go func() {
		<-ctx.Done()
		lis.Close()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.logger.Error("accept failed", zap.String("service", s.name), zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

// Addr returns the bound listener address, for tests that listen on :0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	for {
		data, err := readFrame(conn)
		if err != nil {
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.respondError(conn, apperr.BadRequest("malformed request envelope"))
			return
		}

		resp := s.dispatch(ctx, &req)
		out, err := json.Marshal(resp)
		if err != nil {
			s.logger.Error("failed to marshal response",
				zap.String("service", s.name),
				zap.String("cmd", req.Cmd),
				zap.Error(err),
			)
			return
		}
		if err := writeFrame(conn, out); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	handler, ok := s.handlers[req.Cmd]
	if !ok {
		return errorResponse(apperr.NotFound("unknown command %q", req.Cmd))
	}

	result, err := handler(ctx, req.Payload)
	if err != nil {
		s.logger.Warn("handler failed",
			zap.String("service", s.name),
			zap.String("cmd", req.Cmd),
			zap.Error(err),
		)
		return errorResponse(err)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("failed to marshal result",
			zap.String("service", s.name),
			zap.String("cmd", req.Cmd),
			zap.Error(err),
		)
		return errorResponse(apperr.Internal(err))
	}

	return &Response{Result: raw}
}

func (s *Server) respondError(conn net.Conn, err error) {
	out, marshalErr := json.Marshal(errorResponse(err))
	if marshalErr != nil {
		return
	}
	_ = writeFrame(conn, out)
}

func errorResponse(err error) *Response {
	return &Response{
		Error: &ErrorBody{
			Code:    apperr.CodeOf(err),
			Message: err.Error(),
		},
	}
}
