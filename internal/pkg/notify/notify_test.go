package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	posts []string
	err   error
}

func (r *recordingChannel) Post(_ context.Context, title, message string) error {
	r.posts = append(r.posts, title+"|"+message)
	return r.err
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "*Late permission*\nAna asked to clock in late", format("*", "Late permission", "Ana asked to clock in late"))
	assert.Equal(t, "**Done**", format("**", "Done", " "))
	assert.Equal(t, "body", format("*", "", "body"))
}

func TestMulti_PostsToEveryChannel(t *testing.T) {
	ok := &recordingChannel{}
	failing := &recordingChannel{err: errors.New("rate limited")}

	err := Multi{failing, ok}.Post(context.Background(), "Timesheet submitted", "week of 2025-03-10")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, []string{"Timesheet submitted|week of 2025-03-10"}, ok.posts)
	assert.Len(t, failing.posts, 1)
}

func TestSlack_Post(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1700000000.000100"}`))
	}))
	defer srv.Close()

	s := NewSlack("xoxb-test", "C123", slack.OptionAPIURL(srv.URL+"/"))
	require.NoError(t, s.Post(context.Background(), "Overtime approved", "1.5h on 2025-03-10"))

	assert.Equal(t, "C123", form.Get("channel"))
	assert.Equal(t, "*Overtime approved*\n1.5h on 2025-03-10", form.Get("text"))
}

func TestSlack_PostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	s := NewSlack("xoxb-test", "C404", slack.OptionAPIURL(srv.URL+"/"))
	err := s.Post(context.Background(), "x", "y")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}
