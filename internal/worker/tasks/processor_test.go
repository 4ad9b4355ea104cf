package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"datingapp/internal/events"
)

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) Increment(ctx context.Context, eventType string) error {
	return m.Called(ctx, eventType).Error(0)
}

func message(eventType, data string) redis.XMessage {
	return redis.XMessage{ID: "1-0", Values: map[string]interface{}{"type": eventType, "data": data}}
}

func TestProcessor_CountsKnownEvents(t *testing.T) {
	counter := new(mockCounter)
	counter.On("Increment", mock.Anything, events.TypePhotoApproved).Return(nil)

	p := NewProcessor(counter, zerolog.Nop())
	err := p.Handle(context.Background(), message(events.TypePhotoApproved, `{"type":"photo.approved","photoId":4}`))
	require.NoError(t, err)
	counter.AssertExpectations(t)
}

func TestProcessor_DropsBadEntries(t *testing.T) {
	counter := new(mockCounter)
	p := NewProcessor(counter, zerolog.Nop())

	require.NoError(t, p.Handle(context.Background(), message("x", "{broken")))
	require.NoError(t, p.Handle(context.Background(), message("account.deleted", `{"type":"account.deleted"}`)))
	counter.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything)
}

func TestProcessor_CounterFailureIsRetried(t *testing.T) {
	counter := new(mockCounter)
	counter.On("Increment", mock.Anything, events.TypeUserLoggedIn).Return(errors.New("redis down"))

	p := NewProcessor(counter, zerolog.Nop())
	err := p.Handle(context.Background(), message(events.TypeUserLoggedIn, `{"type":"user.logged_in"}`))
	assert.ErrorContains(t, err, "redis down")
}
