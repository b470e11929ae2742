package archiveapi

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"vodkeeper/internal/catalog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))
}

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tr := &http.Transport{}
	t.Cleanup(tr.CloseIdleConnections)
	return New(srv.URL+"/", "secret", WithHTTPClient(&http.Client{Transport: tr, Timeout: 5 * time.Second}))
}

func TestInfo(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/info", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		w.Write([]byte(`[{"streamer":"Doki","date":"2024-01-02","streamType":"Stream","streamTitle":"Hi","id":"abc"}]`))
	})

	records, err := c.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []catalog.Record{{Streamer: "Doki", Date: "2024-01-02", StreamType: "Stream", StreamTitle: "Hi", ID: "abc"}}, records)
}

func TestUpload_GzipJSON(t *testing.T) {
	var got map[string]string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transcript", r.URL.Path)
		assert.Equal(t, "gzip", r.Header.Get("Content-Encoding"))
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))

		zr, err := gzip.NewReader(r.Body)
		if !assert.NoError(t, err) {
			return
		}
		b, err := io.ReadAll(zr)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(b, &got))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Upload(context.Background(), Transcript{
		Record: catalog.Record{Streamer: "Doki", Date: "2024-01-02", StreamType: "Stream", StreamTitle: "Hi", ID: "abc"},
		SRT:    "1\n00:00:00,000 --> 00:00:01,000\nhi\n",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"streamer":    "Doki",
		"date":        "2024-01-02",
		"streamType":  "Stream",
		"streamTitle": "Hi",
		"id":          "abc",
		"srt":         "1\n00:00:00,000 --> 00:00:01,000\nhi\n",
	}, got)
}

func TestStatusError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	err := c.Upload(context.Background(), Transcript{})
	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "bad key", se.Body)

	var re *RequestError
	assert.False(t, errors.As(err, &re))
}

func TestRequestError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(base, "secret", WithTimeout(time.Second))
	_, err := c.Info(context.Background())
	var re *RequestError
	require.True(t, errors.As(err, &re), "got %v", err)
	assert.Equal(t, http.MethodGet, re.Method)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestMembership(t *testing.T) {
	type seen struct {
		method, path, apiKey, memberKey string
	}
	var calls []seen
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, seen{r.Method, r.URL.Path, r.Header.Get("X-API-Key"), r.Header.Get("X-Membership-Key")})
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Write([]byte(`{"keys":["k1"]}`))
	})
	ctx := context.Background()

	resp, err := c.ChannelKeys(ctx, "Doki")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, map[string]any{"keys": []any{"k1"}}, resp.Body)

	_, err = c.CreateKey(ctx, "Doki")
	require.NoError(t, err)

	resp, err = c.DeleteKeys(ctx, "Doki")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Nil(t, resp.Body)

	_, err = c.AllKeys(ctx)
	require.NoError(t, err)
	_, err = c.VerifyKey(ctx, "k1")
	require.NoError(t, err)

	assert.Equal(t, []seen{
		{http.MethodGet, "/membership/Doki", "secret", ""},
		{http.MethodPost, "/membership/Doki", "secret", ""},
		{http.MethodDelete, "/membership/Doki", "secret", ""},
		{http.MethodGet, "/membership", "secret", ""},
		{http.MethodGet, "/membership/verify", "", "k1"},
	}, calls)
}

func TestMembership_NonJSONAndErrorStatus(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no such channel"))
	})
	resp, err := c.ChannelKeys(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Nil(t, resp.Body)
}
