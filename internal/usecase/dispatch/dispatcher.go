package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/magicaleks/freq-server/internal/domain"
	"github.com/magicaleks/freq-server/internal/impls"
)

type Dispatcher struct {
	gate   impls.LifecycleGate
	logger *slog.Logger
}

func NewDispatcher(gate impls.LifecycleGate, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{gate: gate, logger: logger}
}

// Dispatch runs op against the gate. Domain failures never escape: each one
// becomes a single error entry in the returned envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, op domain.Operation, body string) domain.Response {
	var resp domain.Response
	switch op {
	case domain.OpStartServer:
		resp = d.respond(d.gate.Start(ctx))
	case domain.OpStopServer:
		resp = d.respond(d.gate.Stop(ctx))
	case domain.OpAllocateFrequency:
		f, err := d.gate.Allocate(ctx)
		if err != nil {
			resp = d.respond(err)
		} else {
			resp = domain.Allocated(f)
		}
	case domain.OpDeallocateFrequency:
		resp = d.respond(d.deallocate(ctx, body))
	default:
		resp = d.respond(domain.ErrWrongRequest{Input: string(op), Err: errors.New("unknown operation")})
	}

	if resp.IsOK() {
		d.logger.Info("operation completed", "op", op)
	} else {
		d.logger.Info("operation rejected", "op", op, "error_type", resp.ErrorType())
	}
	return resp
}

// deallocate checks liveness before the input is parsed, so a malformed id
// sent to a stopped server reports NOT_RUNNING.
func (d *Dispatcher) deallocate(ctx context.Context, body string) error {
	f, err := ParseFrequency(body)
	if err != nil {
		if d.gate.State() != domain.StateRunning {
			return domain.ErrNotRunning{}
		}
		return err
	}
	return d.gate.Deallocate(ctx, f)
}

func (d *Dispatcher) respond(err error) domain.Response {
	if err == nil {
		return domain.OK()
	}
	kind := Classify(err)
	if kind == domain.ErrorInternal {
		d.logger.Error("unclassified operation error", "err", err)
	}
	return domain.Failed(kind)
}

// ParseFrequency parses the text parameter of DeallocateFrequency.
func ParseFrequency(body string) (int, error) {
	text := strings.TrimSpace(body)
	f, err := strconv.Atoi(text)
	if err != nil {
		return 0, domain.ErrWrongRequest{Input: text, Err: fmt.Errorf("frequency must be an integer: %w", err)}
	}
	return f, nil
}

// Classify maps a domain error onto its wire token.
func Classify(err error) domain.ErrorType {
	var (
		alreadyStarted domain.ErrAlreadyStarted
		notRunning     domain.ErrNotRunning
		wrongRequest   domain.ErrWrongRequest
		notAllocated   domain.ErrNotAllocated
		noFrequency    domain.ErrNoFrequency
	)
	switch {
	case errors.As(err, &alreadyStarted):
		return domain.ErrorAlreadyStarted
	case errors.As(err, &notRunning):
		return domain.ErrorNotRunning
	case errors.As(err, &wrongRequest):
		return domain.ErrorWrongRequest
	case errors.As(err, &notAllocated):
		return domain.ErrorNotAllocated
	case errors.As(err, &noFrequency):
		return domain.ErrorNoFrequency
	default:
		return domain.ErrorInternal
	}
}
