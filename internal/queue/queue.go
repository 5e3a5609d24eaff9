package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"similarity-checker/internal/similarity"
)

const (
	SubjectCompare = "similarity.compare"
	GroupCompare   = "similarity-workers"
)

// CompareRequest asks a worker for one comparison.
type CompareRequest struct {
	RequestID string `json:"request_id"`
	Text1     string `json:"text1"`
	Text2     string `json:"text2"`
}

// CompareReply carries the score, or FailureScore with Error and Kind set.
type CompareReply struct {
	RequestID string           `json:"request_id"`
	Score     similarity.Score `json:"score"`
	Kind      ErrorKind        `json:"kind,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// ErrorKind names a failure class on the wire so callers can map it back to a sentinel.
type ErrorKind string

const (
	KindInvalidInput ErrorKind = "invalid_input"
	KindTransport    ErrorKind = "transport"
	KindParse        ErrorKind = "parse"
	KindOutOfRange   ErrorKind = "out_of_range"
	KindInternal     ErrorKind = "internal"
)

var kindSentinels = []struct {
	kind ErrorKind
	err  error
}{
	{KindInvalidInput, similarity.ErrInvalidInput},
	{KindTransport, similarity.ErrTransport},
	{KindParse, similarity.ErrParse},
	{KindOutOfRange, similarity.ErrOutOfRange},
}

// KindOf classifies err. Nil yields "".
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, ks := range kindSentinels {
		if errors.Is(err, ks.err) {
			return ks.kind
		}
	}
	return KindInternal
}

// Err rebuilds an error from a reply, wrapping the matching sentinel.
func (r CompareReply) Err() error {
	if r.Kind == "" && r.Error == "" {
		return nil
	}
	for _, ks := range kindSentinels {
		if ks.kind == r.Kind {
			return fmt.Errorf("remote: %w: %s", ks.err, r.Error)
		}
	}
	return fmt.Errorf("remote: %s", r.Error)
}

// NewReply builds the reply for a finished comparison.
func NewReply(requestID string, score similarity.Score, err error) CompareReply {
	if err != nil {
		return CompareReply{RequestID: requestID, Score: similarity.FailureScore, Kind: KindOf(err), Error: err.Error()}
	}
	return CompareReply{RequestID: requestID, Score: score}
}

type Handler func(context.Context, CompareRequest) CompareReply

// Queue exposes request/reply over a message bus.
type Queue interface {
	Request(ctx context.Context, req CompareRequest) (CompareReply, error)
	Serve(ctx context.Context, handler Handler) error
}

// RemoteComparer sends comparisons to workers instead of calling the API directly.
type RemoteComparer struct {
	q Queue
}

func NewRemoteComparer(q Queue) *RemoteComparer {
	return &RemoteComparer{q: q}
}

func (r *RemoteComparer) Compare(ctx context.Context, text1, text2 string) (similarity.Score, error) {
	reply, err := r.q.Request(ctx, CompareRequest{
		RequestID: uuid.NewString(),
		Text1:     text1,
		Text2:     text2,
	})
	if err != nil {
		return similarity.FailureScore, fmt.Errorf("%w: %w", similarity.ErrTransport, err)
	}
	if err := reply.Err(); err != nil {
		return similarity.FailureScore, err
	}
	return reply.Score, nil
}
