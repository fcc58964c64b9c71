package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/hyperjump/synergy/internal/embedding/mocks"
)

var fastPolicy = RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestRetryingEmbedder_RetriesTransient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	next := mocks.NewMockEmbedder(ctrl)
	gomock.InOrder(
		next.EXPECT().Embed(gomock.Any(), "x").Return(nil, &APIError{StatusCode: 429}),
		next.EXPECT().Embed(gomock.Any(), "x").Return(nil, &APIError{StatusCode: 503}),
		next.EXPECT().Embed(gomock.Any(), "x").Return([]float32{1, 2}, nil),
	)

	r := NewRetryingEmbedder(next, fastPolicy, nil)
	v, err := r.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("expected success on third attempt: %v", err)
	}
	if len(v) != 2 {
		t.Errorf("got %v", v)
	}
}

func TestRetryingEmbedder_GivesUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	next := mocks.NewMockEmbedder(ctrl)
	next.EXPECT().EmbedBatch(gomock.Any(), gomock.Any()).Return(nil, &APIError{StatusCode: 500}).Times(3)

	r := NewRetryingEmbedder(next, fastPolicy, nil)
	_, err := r.EmbedBatch(context.Background(), []string{"a"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Errorf("expected last APIError, got %v", err)
	}
}

func TestRetryingEmbedder_PermanentStopsAtOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	next := mocks.NewMockEmbedder(ctrl)
	next.EXPECT().Embed(gomock.Any(), "x").Return(nil, &APIError{StatusCode: 401}).Times(1)

	r := NewRetryingEmbedder(next, fastPolicy, nil)
	if _, err := r.Embed(context.Background(), "x"); err == nil {
		t.Error("expected error")
	}
}

func TestRetryingEmbedder_Defaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	next := mocks.NewMockEmbedder(ctrl)
	next.EXPECT().Dimensions().Return(1536)
	next.EXPECT().Close().Return(nil)

	r := NewRetryingEmbedder(next, RetryPolicy{}, nil)
	if r.policy != DefaultRetryPolicy {
		t.Errorf("policy: got %+v", r.policy)
	}
	if r.Dimensions() != 1536 {
		t.Error("Dimensions should be forwarded")
	}
	if err := r.Close(); err != nil {
		t.Error(err)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &APIError{StatusCode: 429}, true},
		{"server error", fmt.Errorf("wrapped: %w", &APIError{StatusCode: 502}), true},
		{"bad request", &APIError{StatusCode: 400}, false},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"canceled", context.Canceled, false},
		{"other", errors.New("dimension mismatch"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
