package netx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	t.Run("success decodes body", func(t *testing.T) {
		var gotCT, gotAuth, gotMethod string
		var gotBody map[string]any

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"point":15}`))
		}))
		defer ts.Close()

		var out struct {
			Point float64 `json:"point"`
		}
		err := PostJSON(context.Background(), ts.Client(), ts.URL+"/submit", "tok", map[string]any{"phone": "0812"}, &out)
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "application/json", gotCT)
		assert.Equal(t, "Bearer tok", gotAuth)
		assert.Equal(t, "0812", gotBody["phone"])
		assert.EqualValues(t, 15, out.Point)
	})

	t.Run("no token no output", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		require.NoError(t, PostJSON(context.Background(), nil, ts.URL, "", struct{}{}, nil))
	})

	t.Run("non-2xx returns StatusError", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"USER_NOT_FOUND"}`))
		}))
		defer ts.Close()

		err := PostJSON(context.Background(), ts.Client(), ts.URL, "", struct{}{}, nil)
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusNotFound, se.StatusCode)
		assert.Contains(t, string(se.Body), "USER_NOT_FOUND")
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("bad json response", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer ts.Close()

		var out map[string]any
		err := PostJSON(context.Background(), ts.Client(), ts.URL, "", struct{}{}, &out)
		assert.ErrorContains(t, err, "decode response")
	})

	t.Run("unencodable input", func(t *testing.T) {
		err := PostJSON(context.Background(), nil, "http://127.0.0.1:1", "", make(chan int), nil)
		assert.ErrorContains(t, err, "encode request")
	})

	t.Run("context cancelled", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer ts.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := PostJSON(ctx, ts.Client(), ts.URL, "", struct{}{}, nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
