package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	e := &Error{Type: ErrorTypeServer, Message: "bad gateway", Code: 502}
	assert.Equal(t, "server error (code 502): bad gateway", e.Error())

	graph := &Error{Type: ErrorTypeRecipient, Message: "message undeliverable", Code: 400, APICode: 131026}
	assert.Equal(t, "recipient error (code 400, api code 131026): message undeliverable", graph.Error())
	assert.Equal(t, 131026, APICodeOf(fmt.Errorf("send: %w", graph)))
	assert.Zero(t, APICodeOf(e))
	assert.Zero(t, APICodeOf(stderrors.New("plain")))

	wrapped := Wrap(ErrorTypeInput, "contacts file not found", fmt.Errorf("open x.csv: no such file"))
	assert.Equal(t, "input error: contacts file not found: open x.csv: no such file", wrapped.Error())
}

func TestUnwrapAndTypeOf(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := fmt.Errorf("outer: %w", Wrap(ErrorTypeMedia, "image", sentinel))

	assert.True(t, stderrors.Is(err, sentinel))
	assert.Equal(t, ErrorTypeMedia, TypeOf(err))
	assert.True(t, Is(err, ErrorTypeMedia))
	assert.False(t, Is(nil, ErrorTypeMedia))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(sentinel))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"assets", stderrors.New("Unable to Locate Assets on page"), ErrorTypeAssets},
		{"network", stderrors.New("Internet Not Connected"), ErrorTypeNetwork},
		{"deadline", fmt.Errorf("waiting for chat: %w", context.DeadlineExceeded), ErrorTypeNetwork},
		{"typed passes through", New(ErrorTypeSession, "qr code"), ErrorTypeSession},
		{"other", stderrors.New("element not interactable"), ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(Classify(tt.err)))
		})
	}

	assert.Nil(t, Classify(nil))
}

func TestHint(t *testing.T) {
	assert.Contains(t, Hint(stderrors.New("Unable to Locate Assets")), "UI may have changed")
	assert.Contains(t, Hint(stderrors.New("Internet Not Connected")), "internet connection")
	assert.Equal(t, genericHint, Hint(stderrors.New("boom")))
}
