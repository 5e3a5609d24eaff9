package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"similarity-checker/internal/app"
	"similarity-checker/internal/queue"
	"similarity-checker/internal/similarity"
)

type panicComparer struct{}

func (panicComparer) Compare(context.Context, string, string) (similarity.Score, error) {
	panic("nil map")
}

func newTestDeps(c similarity.Comparer) app.Deps {
	return app.Deps{
		Comparer: c,
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestHandleCompare(t *testing.T) {
	tests := []struct {
		name      string
		req       queue.CompareRequest
		setup     func(*similarity.MockComparer)
		wantScore similarity.Score
		wantKind  queue.ErrorKind
	}{
		{
			name: "identical texts",
			req:  queue.CompareRequest{RequestID: "r1", Text1: "hello", Text2: "hello"},
			setup: func(m *similarity.MockComparer) {
				m.On("Compare", mock.Anything, "hello", "hello").Return(similarity.Score(5), nil).Once()
			},
			wantScore: 5,
		},
		{
			name: "parse failure",
			req:  queue.CompareRequest{RequestID: "r2", Text1: "a", Text2: "b"},
			setup: func(m *similarity.MockComparer) {
				m.On("Compare", mock.Anything, "a", "b").Return(similarity.FailureScore, similarity.ErrParse).Once()
			},
			wantScore: similarity.FailureScore,
			wantKind:  queue.KindParse,
		},
		{
			name: "blank input",
			req:  queue.CompareRequest{RequestID: "r3", Text1: "", Text2: "b"},
			setup: func(m *similarity.MockComparer) {
				m.On("Compare", mock.Anything, "", "b").Return(similarity.FailureScore, similarity.ErrInvalidInput).Once()
			},
			wantScore: similarity.FailureScore,
			wantKind:  queue.KindInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(similarity.MockComparer)
			tt.setup(m)

			reply := handleCompare(context.Background(), newTestDeps(m), tt.req)

			assert.Equal(t, tt.req.RequestID, reply.RequestID)
			assert.Equal(t, tt.wantScore, reply.Score)
			assert.Equal(t, tt.wantKind, reply.Kind)
			m.AssertExpectations(t)
		})
	}
}

func TestHandleCompareRecoversPanic(t *testing.T) {
	reply := handleCompare(context.Background(), newTestDeps(panicComparer{}), queue.CompareRequest{RequestID: "r9"})

	assert.Equal(t, queue.KindInternal, reply.Kind)
	assert.Equal(t, similarity.FailureScore, reply.Score)
	assert.Equal(t, "r9", reply.RequestID)
}
