package cloud

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greetsend/pkg/config"
	"greetsend/pkg/errors"
	"greetsend/pkg/logger"
	"greetsend/pkg/sender"
)

type fakeGraph struct {
	t            *testing.T
	uploads      int
	lastMessage  messageRequest
	messageCode  int
	messageBody  string
	uploadedType string
}

func (f *fakeGraph) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v19.0/12345/media", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "Bearer secret-token", r.Header.Get("Authorization"))
		if !assert.NoError(f.t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(f.t, "whatsapp", r.FormValue("messaging_product"))
		file, hdr, err := r.FormFile("file")
		if !assert.NoError(f.t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.NotEmpty(f.t, data)
		f.uploadedType = hdr.Header.Get("Content-Type")
		f.uploads++
		w.Write([]byte(`{"id":"media-1"}`))
	})
	mux.HandleFunc("/v19.0/12345/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.lastMessage))
		if f.messageCode != 0 {
			w.WriteHeader(f.messageCode)
			w.Write([]byte(f.messageBody))
			return
		}
		w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.1"}]}`))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeGraph) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c, err := New(Options{
		BaseURL:       srv.URL + "/",
		APIVersion:    "v19.0",
		PhoneNumberID: "12345",
		AccessToken:   "secret-token",
	}, srv.Client(), logger.NewNopLogger())
	require.NoError(t, err)

	img := filepath.Join(t.TempDir(), "card.jpg")
	require.NoError(t, os.WriteFile(img, []byte("\xff\xd8\xff\xe0JFIF"), 0644))
	return c, img
}

func TestSend(t *testing.T) {
	f := &fakeGraph{t: t}
	c, img := newTestClient(t, f)

	err := c.Send(context.Background(), sender.Message{Phone: "+249912345678", ImagePath: img, Caption: "عيد مبارك Ahmed"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.uploads)
	assert.Equal(t, "image/jpeg", f.uploadedType)
	assert.Equal(t, "249912345678", f.lastMessage.To)
	assert.Equal(t, "image", f.lastMessage.Type)
	assert.Equal(t, "media-1", f.lastMessage.Image.ID)
	assert.Equal(t, "عيد مبارك Ahmed", f.lastMessage.Image.Caption)
}

func TestSendErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		code        int
		body        string
		wantType    errors.ErrorType
		wantAPICode int
	}{
		{"expired token", http.StatusUnauthorized, `{"error":{"message":"Error validating access token","code":190}}`, errors.ErrorTypeAuth, 190},
		{"bad recipient", http.StatusBadRequest, `{"error":{"message":"Recipient phone number not in allowed list","code":131030}}`, errors.ErrorTypeRecipient, 131030},
		{"server", http.StatusBadGateway, ``, errors.ErrorTypeServer, 0},
		{"throttled", http.StatusTooManyRequests, `{"error":{"message":"too many","code":4}}`, errors.ErrorTypeServer, 4},
		{"other", http.StatusConflict, `{}`, errors.ErrorTypeUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeGraph{t: t, messageCode: tt.code, messageBody: tt.body}
			c, img := newTestClient(t, f)

			err := c.Send(context.Background(), sender.Message{Phone: "+1", ImagePath: img, Caption: "x"})
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errors.TypeOf(err))
			assert.Equal(t, tt.wantAPICode, errors.APICodeOf(err))
		})
	}
}

func TestSendMissingImage(t *testing.T) {
	f := &fakeGraph{t: t}
	c, _ := newTestClient(t, f)

	err := c.Send(context.Background(), sender.Message{Phone: "+1", ImagePath: "/does/not/exist.jpg"})
	assert.Equal(t, errors.ErrorTypeMedia, errors.TypeOf(err))
	assert.Zero(t, f.uploads)
}

func TestSendTimeoutIsNetworkError(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	c, err := New(Options{BaseURL: srv.URL, APIVersion: "v19.0", PhoneNumberID: "1", AccessToken: "t"}, srv.Client(), nil)
	require.NoError(t, err)

	img := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = c.Send(ctx, sender.Message{Phone: "+1", ImagePath: img})
	assert.Equal(t, errors.ErrorTypeNetwork, errors.TypeOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Options{BaseURL: "https://graph.facebook.com", APIVersion: "v19.0"}, nil, nil)
	assert.Equal(t, errors.ErrorTypeAuth, errors.TypeOf(err))
}

func TestRegisteredFactory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sender.Backend = Name
	cfg.Cloud.PhoneNumberID = "12345"
	cfg.Cloud.AccessToken = "token"

	s, err := sender.New(cfg, sender.Deps{Logger: logger.NewNopLogger()})
	require.NoError(t, err)
	assert.IsType(t, &Client{}, s)
	assert.NoError(t, s.Close())
}
