package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/contribtracker/internal/adapter/driven/notify"
)

func TestSlackText(t *testing.T) {
	got := notify.SlackText(`<a href="https://www.drupal.org/user/42">Jane</a> posted a comment on <a href="https://www.drupal.org/node/1">Bug</a>.`)
	assert.Equal(t, "<https://www.drupal.org/user/42|Jane> posted a comment on <https://www.drupal.org/node/1|Bug>.", got)
}

func TestSlackText_Escaping(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "entities in link text and url",
			in:   `<a href="https://x.test/?a=1&amp;b=2">R&amp;D &lt;team&gt;</a> said 1 &lt; 2`,
			want: "<https://x.test/?a=1&b=2|R&amp;D &lt;team&gt;> said 1 &lt; 2",
		},
		{
			name: "quotes are unescaped",
			in:   `<a href="https://x.test">&#34;Quoted&#34; &#39;name&#39;</a>`,
			want: `<https://x.test|"Quoted" 'name'>`,
		},
		{
			name: "pipe in url",
			in:   `<a href="https://x.test/a|b">A</a>`,
			want: "<https://x.test/a%7Cb|A>",
		},
		{
			name: "plain text",
			in:   "Fix &lt;select&gt; &amp; widgets",
			want: "Fix &lt;select&gt; &amp; widgets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notify.SlackText(tt.in))
		})
	}
}

func TestSlackNotifier_Notify(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	n := notify.NewSlackNotifier(server.URL, server.Client())
	require.NoError(t, n.Notify(context.Background(), `<a href="https://x.test">X</a> did a thing.`))

	assert.Equal(t, "<https://x.test|X> did a thing.", got["text"])
}

func TestSlackNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid_token"))
	}))
	t.Cleanup(server.Close)

	err := notify.NewSlackNotifier(server.URL, server.Client()).Notify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403: invalid_token")
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	require.NoError(t, notify.NewLogNotifier(logger).Notify(context.Background(), "hello"))
	assert.Contains(t, buf.String(), `"message":"hello"`)
}
