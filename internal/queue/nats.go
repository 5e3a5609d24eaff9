package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// conn is the subset of *nats.Conn the queue uses.
type conn interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
	QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
	Publish(subj string, data []byte) error
}

// NewNATS constructs a thin NATS request/reply queue.
func NewNATS(log *slog.Logger, nc *nats.Conn) Queue {
	return newNATS(log, nc)
}

func newNATS(log *slog.Logger, nc conn) *natsQueue {
	if log == nil {
		log = slog.Default()
	}
	return &natsQueue{log: log, nc: nc}
}

type natsQueue struct {
	log *slog.Logger
	nc  conn
}

func (q *natsQueue) Request(ctx context.Context, req CompareRequest) (CompareReply, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return CompareReply{}, err
	}
	msg, err := q.nc.RequestWithContext(ctx, SubjectCompare, body)
	if err != nil {
		return CompareReply{}, err
	}
	var reply CompareReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return CompareReply{}, err
	}
	if reply.RequestID != req.RequestID {
		return CompareReply{}, errors.New("reply does not match request id")
	}
	return reply, nil
}

func (q *natsQueue) Serve(ctx context.Context, handler Handler) error {
	sub, err := q.nc.QueueSubscribe(SubjectCompare, GroupCompare, func(msg *nats.Msg) {
		q.handleMessage(ctx, msg, handler)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Unsubscribe()
}

func (q *natsQueue) handleMessage(ctx context.Context, msg *nats.Msg, handler Handler) {
	var req CompareRequest
	var reply CompareReply
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		q.log.Error("failed to decode compare request", "err", err)
		reply = CompareReply{Kind: KindInvalidInput, Error: "malformed request"}
	} else {
		if req.RequestID == "" {
			req.RequestID = uuid.NewString()
		}
		reply = handler(ctx, req)
	}

	if msg.Reply == "" {
		q.log.Warn("compare request without reply subject", "request_id", req.RequestID)
		return
	}
	body, err := json.Marshal(reply)
	if err != nil {
		q.log.Error("failed to encode compare reply", "request_id", req.RequestID, "err", err)
		return
	}
	if err := q.nc.Publish(msg.Reply, body); err != nil {
		q.log.Error("failed to respond", "request_id", req.RequestID, "err", err)
	}
}
