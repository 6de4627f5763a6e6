//go:build integration

package browser_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greetsend/pkg/errors"
	"greetsend/pkg/logger"
	"greetsend/pkg/sender"
	"greetsend/pkg/sender/browser"
)

const chatPage = `<html><body>
<div title="Attach" style="width:40px;height:40px" onclick="document.getElementById('media').style.display='block'">+</div>
<div id="media" style="display:none">
  <input type="file" accept="image/*,video/mp4" id="file">
  <div aria-label="Add a caption" contenteditable="true" style="width:200px;height:20px"></div>
  <span data-icon="send" style="display:inline-block;width:40px;height:40px" onclick="sendIt()">send</span>
</div>
<footer><div contenteditable="true" style="width:200px;height:20px"></div></footer>
<script>
function sendIt() {
  var caption = document.querySelector('div[aria-label="Add a caption"]').innerText;
  var file = document.getElementById('file').files[0];
  fetch('/sent?caption=' + encodeURIComponent(caption) + '&file=' + encodeURIComponent(file ? file.name : ''));
}
</script>
</body></html>`

const invalidPage = `<html><body>
<div role="dialog">Phone number shared via url is invalid.</div>
</body></html>`

const loginPage = `<html><body>
<div data-ref="2@abc"><canvas aria-label="Scan me!" width="20" height="20"></canvas></div>
</body></html>`

type fakeWhatsApp struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeWhatsApp) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/send", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("phone") {
		case "000":
			fmt.Fprint(w, invalidPage)
		case "111":
			fmt.Fprint(w, loginPage)
		default:
			fmt.Fprint(w, chatPage)
		}
	})
	mux.HandleFunc("/sent", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sent = append(f.sent, r.URL.Query().Get("file")+"|"+r.URL.Query().Get("caption"))
	})
	return mux
}

func (f *fakeWhatsApp) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newIntegrationSender(t *testing.T, baseURL string) *browser.Sender {
	t.Helper()
	s := browser.New(browser.Options{
		BaseURL:   baseURL,
		Headless:  true,
		WaitTime:  10 * time.Second,
		CloseTime: 200 * time.Millisecond,
		Selectors: browser.DefaultSelectors(),
	}, logger.NewNopLogger())
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("close error: %v", err)
		}
	})
	return s
}

func TestSendAgainstFakeWhatsApp_Integration(t *testing.T) {
	fake := &fakeWhatsApp{}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	img := filepath.Join(t.TempDir(), "ahmed.jpg")
	require.NoError(t, os.WriteFile(img, []byte("\xff\xd8\xff\xe0fake"), 0644))

	s := newIntegrationSender(t, ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	err := s.Send(ctx, sender.Message{Phone: "+249 912 345678", ImagePath: img, Caption: "Eid Mubarak Ahmed"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(fake.messages()) == 1 }, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, "ahmed.jpg|Eid Mubarak Ahmed", fake.messages()[0])
}

func TestSendClassifiesPageState_Integration(t *testing.T) {
	fake := &fakeWhatsApp{}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	s := newIntegrationSender(t, ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	err := s.Send(ctx, sender.Message{Phone: "000", ImagePath: "unused.jpg"})
	assert.Equal(t, errors.ErrorTypeRecipient, errors.TypeOf(err))

	err = s.Send(ctx, sender.Message{Phone: "111", ImagePath: "unused.jpg"})
	assert.Equal(t, errors.ErrorTypeSession, errors.TypeOf(err))

	assert.Empty(t, fake.messages())
}
