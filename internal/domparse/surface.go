package domparse

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrSurfaceClosed is returned by RoundTrip after the surface has been closed
var ErrSurfaceClosed = errors.New("parse surface closed")

// Transport carries one parse request to a surface and returns its single response
type Transport interface {
	RoundTrip(ctx context.Context, req Request) (Response, error)
}

type surfaceCall struct {
	req   Request
	reply chan Response
}

// Surface is an in-process parse surface: a worker goroutine that owns a
// parser table and answers requests received over a channel.
type Surface struct {
	table    *Table
	logger   *zap.Logger
	requests chan surfaceCall
	done     chan struct{}
	closing  sync.Once
}

// StartSurface starts the surface worker
func StartSurface(table *Table, logger *zap.Logger) *Surface {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Surface{
		table:    table,
		logger:   logger,
		requests: make(chan surfaceCall),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Surface) run() {
	for {
		select {
		case call := <-s.requests:
			call.reply <- s.table.Handle(call.req, s.logger)
		case <-s.done:
			return
		}
	}
}

// RoundTrip implements Transport
func (s *Surface) RoundTrip(ctx context.Context, req Request) (Response, error) {
	// Buffered so the worker never blocks on a caller that gave up
	call := surfaceCall{req: req, reply: make(chan Response, 1)}

	select {
	case s.requests <- call:
	case <-s.done:
		return Response{}, ErrSurfaceClosed
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}

	select {
	case resp := <-call.reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Close stops the worker. It is safe to call more than once.
func (s *Surface) Close() {
	s.closing.Do(func() {
		close(s.done)
	})
}
