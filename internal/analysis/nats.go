package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"
)

const DefaultSubject = "analysis.request"

// Requester is the request/reply half of *nats.Conn
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

type Request struct {
	Media Media `json:"media"`
}

type Reply struct {
	Result *Result `json:"result,omitempty"`
	Code   string  `json:"code,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// NATSAnalyzer forwards analyses to a remote detector over request/reply
type NATSAnalyzer struct {
	nc      Requester
	subject string
}

func NewNATSAnalyzer(nc Requester, subject string) *NATSAnalyzer {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSAnalyzer{nc: nc, subject: subject}
}

func (a *NATSAnalyzer) Analyze(ctx context.Context, m Media) (Result, error) {
	if err := checkMedia(m); err != nil {
		return Result{}, err
	}

	data, err := json.Marshal(Request{Media: m})
	if err != nil {
		return Result{}, fmt.Errorf("%w: marshal request: %v", ErrInternal, err)
	}

	msg, err := a.nc.RequestWithContext(ctx, a.subject, data)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
			return Result{}, ErrTimeout
		case errors.Is(err, nats.ErrNoResponders):
			return Result{}, fmt.Errorf("%w: no responders on %s", ErrServiceUnavailable, a.subject)
		default:
			return Result{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
	}

	var reply Reply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return Result{}, fmt.Errorf("%w: decode reply: %v", ErrInternal, err)
	}
	if reply.Code != "" {
		return Result{}, fmt.Errorf("%w: %s", ErrorForCode(reply.Code), reply.Error)
	}
	if reply.Result == nil {
		return Result{}, fmt.Errorf("%w: empty reply", ErrInternal)
	}
	return *reply.Result, nil
}

// HandleRequest runs one encoded request through a and encodes the reply.
// It is the responder side of NATSAnalyzer.
func HandleRequest(ctx context.Context, a Analyzer, data []byte) []byte {
	var reply Reply

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		reply = Reply{Code: CodeInvalidMedia, Error: "malformed request"}
	} else if res, err := a.Analyze(ctx, req.Media); err != nil {
		reply = Reply{Code: Code(err), Error: err.Error()}
	} else {
		reply = Reply{Result: &res}
	}

	out, err := json.Marshal(reply)
	if err != nil {
		log.Printf("[ERROR] Analysis: marshal reply: %v", err)
		out = []byte(`{"code":"internal_error","error":"marshal reply"}`)
	}
	return out
}
