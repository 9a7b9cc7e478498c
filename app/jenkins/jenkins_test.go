package jenkins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer imitates the jobs api with crumb protection
type fakeServer struct {
	mu        sync.Mutex
	jobs      []string
	withCrumb bool
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "jobs[name,url]", r.URL.Query().Get("tree"))
		f.mu.Lock()
		defer f.mu.Unlock()
		resp := `{"jobs":[`
		for i, j := range f.jobs {
			if i > 0 {
				resp += ","
			}
			resp += `{"name":"` + j + `","url":"http://localhost/job/` + url.PathEscape(j) + `/"}`
		}
		resp += "]}"
		_, _ = w.Write([]byte(resp))
	})
	mux.HandleFunc("GET /crumbIssuer/api/json", func(w http.ResponseWriter, _ *http.Request) {
		if !f.withCrumb {
			http.NotFound(w, nil)
			return
		}
		_, _ = w.Write([]byte(`{"crumb":"abc123","crumbRequestField":"Jenkins-Crumb"}`))
	})
	mux.HandleFunc("POST /job/{name}/doDelete", func(w http.ResponseWriter, r *http.Request) {
		if f.withCrumb && r.Header.Get("Jenkins-Crumb") != "abc123" {
			http.Error(w, "no crumb", http.StatusForbidden)
			return
		}
		name := r.PathValue("name")
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, j := range f.jobs {
			if j == name {
				f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("GET /i18n/resourceBundle", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("baseName") != "jenkins.dialogs" {
			http.Error(w, "bad base name", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","data":{}}`))
	})
	return mux
}

func TestClient_Status(t *testing.T) {
	ts := httptest.NewServer((&fakeServer{}).handler(t))
	defer ts.Close()
	c := New(Params{BaseURL: ts.URL + "/"})

	code, err := c.Status(context.Background(), "i18n/resourceBundle", url.Values{"baseName": {"jenkins.dialogs"}, "_": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)

	code, err = c.Status(context.Background(), "/i18n/resourceBundle", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, code)

	code, err = c.Status(context.Background(), "/not-found", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, code)

	c = New(Params{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	_, err = c.Status(context.Background(), "/", nil)
	require.Error(t, err)
}

func TestClient_BasicAuth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	code, err := New(Params{BaseURL: ts.URL}).Status(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, err = New(Params{BaseURL: ts.URL, User: "admin", Token: "token"}).Status(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
}

func TestClient_WaitReady(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := New(Params{BaseURL: ts.URL})
	require.NoError(t, c.WaitReady(context.Background(), 5, time.Millisecond))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	atomic.StoreInt32(&calls, -100)
	err := c.WaitReady(context.Background(), 2, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not ready")
}

func TestClient_Jobs(t *testing.T) {
	srv := &fakeServer{jobs: []string{"sunt", "quia dolor"}}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	jobs, err := New(Params{BaseURL: ts.URL}).Jobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "sunt", jobs[0].Name)
	assert.Equal(t, "quia dolor", jobs[1].Name)
}

func TestClient_DeleteJob(t *testing.T) {
	for _, withCrumb := range []bool{true, false} {
		srv := &fakeServer{jobs: []string{"sunt", "quia dolor"}, withCrumb: withCrumb}
		ts := httptest.NewServer(srv.handler(t))
		c := New(Params{BaseURL: ts.URL})

		require.NoError(t, c.DeleteJob(context.Background(), "quia dolor"))
		assert.Equal(t, []string{"sunt"}, srv.jobs)

		err := c.DeleteJob(context.Background(), "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
		ts.Close()
	}
}

func TestClient_DeleteAllJobs(t *testing.T) {
	srv := &fakeServer{jobs: []string{"sunt", "quia dolor", "alias"}, withCrumb: true}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()
	c := New(Params{BaseURL: ts.URL})

	n, err := c.DeleteAllJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, srv.jobs)

	n, err = c.DeleteAllJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
