package restyutil

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mu       sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.messages == nil {
		o.messages = map[string]string{}
	}
	o.messages[id] = contents
}

type debugHandler struct {
	slog.Handler
}

func (debugHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func TestFormatHeaders(t *testing.T) {
	require.Equal(t, "", formatHeaders(http.Header{}))
	require.Equal(t, "A: 1\nB: 2\nB: 3", formatHeaders(http.Header{
		"B": {"2", "3"},
		"A": {"1"},
	}))
}

func TestInstrumentClient(t *testing.T) {
	previous := slog.Default()
	slog.SetDefault(slog.New(debugHandler{Handler: previous.Handler()}))
	defer slog.SetDefault(previous)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/image.png" {
			w.Write([]byte{0x89, 0x50, 0x4e, 0x47, 0xff, 0xfe})
			return
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	out := &memoryOutput{}
	client := resty.New().SetBaseURL(server.URL)
	InstrumentClient(client, "portal", out)

	_, err := client.R().SetFormData(map[string]string{"lang": "ge"}).Post("/submit-index.php")
	require.NoError(t, err)
	_, err = client.R().Get("/image.png")
	require.NoError(t, err)

	require.Len(t, out.messages, 2)
	first := out.messages["portal-1"]
	require.True(t, strings.HasPrefix(first, "---- REQUEST ----\n\nPOST "))
	require.Contains(t, first, "lang=ge")
	require.Contains(t, first, "<html>ok</html>")
	require.Contains(t, out.messages["portal-2"], "<BINARY BODY: 6 bytes>")
}
