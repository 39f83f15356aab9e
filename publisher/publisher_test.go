package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto_pinterest_content_engine/engine"
)

type fakeSource struct {
	post     *engine.PostRecord
	posted   []string
	fetchErr error
	markErr  error
}

func (f *fakeSource) NextReadyPost(context.Context) (*engine.PostRecord, error) {
	return f.post, f.fetchErr
}

func (f *fakeSource) MarkPostPosted(_ context.Context, recordID string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.posted = append(f.posted, recordID)
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestPublishNextCreatesPinAndMarksPosted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pins", r.URL.Path)
		require.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var payload createPinPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "board1", payload.BoardID)
		assert.Equal(t, "First", payload.Title)
		assert.Contains(t, payload.Description, "#a, #b")
		assert.Equal(t, "image_url", payload.MediaSource.SourceType)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(createPinResp{ID: "pin123"})
	}))
	defer server.Close()

	source := &fakeSource{post: &engine.PostRecord{ID: "p1", Title: "First", Description: "d", Hashtags: "#a, #b"}}
	pub, err := New(Config{AccessToken: "token", BoardID: "board1", BaseURL: server.URL}, source, server.Client(), quietLogger())
	require.NoError(t, err)

	pinID, err := pub.PublishNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pin123", pinID)
	assert.Equal(t, []string{"p1"}, source.posted)
}

func TestPublishNextNoReadyPost(t *testing.T) {
	pub, err := New(Config{AccessToken: "token", BoardID: "board1"}, &fakeSource{}, nil, quietLogger())
	require.NoError(t, err)

	pinID, err := pub.PublishNext(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pinID)
}

func TestPublishNextPinFailureLeavesPostReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad token"}`))
	}))
	defer server.Close()

	source := &fakeSource{post: &engine.PostRecord{ID: "p1", Title: "First"}}
	pub, err := New(Config{AccessToken: "token", BoardID: "board1", BaseURL: server.URL}, source, server.Client(), quietLogger())
	require.NoError(t, err)

	_, err = pub.PublishNext(context.Background())
	require.Error(t, err)
	assert.Empty(t, source.posted, "a failed pin must not be marked posted")
}

func TestPublishNextMarkFailureSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(createPinResp{ID: "pin123"})
	}))
	defer server.Close()

	source := &fakeSource{
		post:    &engine.PostRecord{ID: "p1", Title: "First"},
		markErr: errors.New("airtable 503"),
	}
	pub, err := New(Config{AccessToken: "token", BoardID: "board1", BaseURL: server.URL}, source, server.Client(), quietLogger())
	require.NoError(t, err)

	pinID, err := pub.PublishNext(context.Background())
	require.Error(t, err, "unmarked published post risks a duplicate pin and must be loud")
	assert.Equal(t, "pin123", pinID)
}

func TestExchangeCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "app-id", user)
		assert.Equal(t, "app-secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))

		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "at", RefreshToken: "rt"})
	}))
	defer server.Close()

	cfg := OAuthConfig{ClientID: "app-id", ClientSecret: "app-secret", TokenURL: server.URL}
	token, err := ExchangeCode(context.Background(), server.Client(), cfg, "the-code")
	require.NoError(t, err)
	assert.Equal(t, "at", token.AccessToken)
	assert.Equal(t, "rt", token.RefreshToken)
}

func TestExchangeCodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	cfg := OAuthConfig{ClientID: "app-id", ClientSecret: "app-secret", TokenURL: server.URL}
	_, err := ExchangeCode(context.Background(), server.Client(), cfg, "bad-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestAuthorizeURL(t *testing.T) {
	cfg := OAuthConfig{ClientID: "app-id"}
	u := AuthorizeURL(cfg, "1234")
	assert.Contains(t, u, "client_id=app-id")
	assert.Contains(t, u, "response_type=code")
	assert.Contains(t, u, "state=1234")
}
