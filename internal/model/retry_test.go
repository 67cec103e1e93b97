package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vbonduro/foodcoach/internal/analysis"
	"github.com/vbonduro/foodcoach/internal/model/mocks"
)

func newTestRetrying(inv Invoker, retries int) *Retrying {
	r := WithRetry(inv, retries, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return r
}

var testPrompt = analysis.Prompt{Persona: "Hippocrates", Instruction: "look"}

func TestRetrying_SucceedsFirstTry(t *testing.T) {
	ctrl := gomock.NewController(t)
	inv := mocks.NewMockInvoker(ctrl)
	inv.EXPECT().Invoke(gomock.Any(), []byte("img"), "image/png", testPrompt).Return(`{"a":1}`, nil).Times(1)

	out, err := newTestRetrying(inv, 2).Invoke(context.Background(), []byte("img"), "image/png", testPrompt)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
}

func TestRetrying_RetriesUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	inv := mocks.NewMockInvoker(ctrl)
	inv.EXPECT().Name().Return("stub").AnyTimes()
	gomock.InOrder(
		inv.EXPECT().Invoke(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", fmt.Errorf("%w: status 529", ErrUnavailable)),
		inv.EXPECT().Invoke(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("ok", nil),
	)

	out, err := newTestRetrying(inv, 1).Invoke(context.Background(), nil, "image/jpeg", testPrompt)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestRetrying_GivesUpAfterRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	inv := mocks.NewMockInvoker(ctrl)
	inv.EXPECT().Name().Return("stub").AnyTimes()
	inv.EXPECT().Invoke(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("%w: connection refused", ErrUnavailable)).Times(3)

	_, err := newTestRetrying(inv, 2).Invoke(context.Background(), nil, "image/jpeg", testPrompt)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRetrying_DoesNotRetryOtherErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	inv := mocks.NewMockInvoker(ctrl)
	boom := errors.New("boom")
	inv.EXPECT().Invoke(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", boom).Times(1)

	_, err := newTestRetrying(inv, 3).Invoke(context.Background(), nil, "image/jpeg", testPrompt)
	assert.ErrorIs(t, err, boom)
}

func TestRetrying_ZeroRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	inv := mocks.NewMockInvoker(ctrl)
	inv.EXPECT().Invoke(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", ErrUnavailable).Times(1)

	_, err := newTestRetrying(inv, 0).Invoke(context.Background(), nil, "image/jpeg", testPrompt)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRetrying_StopsOnCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	inv := mocks.NewMockInvoker(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	inv.EXPECT().Invoke(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, []byte, string, analysis.Prompt) (string, error) {
			cancel()
			return "", ErrUnavailable
		}).Times(1)

	_, err := newTestRetrying(inv, 5).Invoke(ctx, nil, "image/jpeg", testPrompt)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRetrying_Name(t *testing.T) {
	ctrl := gomock.NewController(t)
	inv := mocks.NewMockInvoker(ctrl)
	inv.EXPECT().Name().Return("claude")

	assert.Equal(t, "claude", newTestRetrying(inv, 1).Name())
}
