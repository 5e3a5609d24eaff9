package similarity

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockComparer is a mock implementation of Comparer using testify/mock.
type MockComparer struct {
	mock.Mock
}

func (m *MockComparer) Compare(ctx context.Context, text1, text2 string) (Score, error) {
	args := m.Called(ctx, text1, text2)
	return args.Get(0).(Score), args.Error(1)
}
