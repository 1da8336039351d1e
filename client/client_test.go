package client

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/pathwise/core/course"
	"github.com/trezcool/pathwise/core/feedback"
)

type gateway struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	done     map[string]bool
	handler  http.HandlerFunc
}

func newGateway(t *testing.T) (*gateway, *httptest.Server) {
	g := &gateway{done: map[string]bool{"1": true, "2": false, "3": false, "4": false}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := ioutil.ReadAll(r.Body)
		g.mu.Lock()
		g.requests = append(g.requests, r)
		g.bodies = append(g.bodies, string(data))
		handler := g.handler
		g.mu.Unlock()
		if handler != nil {
			handler(w, r)
			return
		}
		g.serve(w, r)
	}))
	t.Cleanup(srv.Close)
	return g, srv
}

func (g *gateway) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/messages/unread-count":
		_, _ = w.Write([]byte(`{"count":3}`))
	case "/api/courses/7":
		g.mu.Lock()
		tasks := make([]course.Task, 0, len(g.done))
		for _, id := range []string{"3", "1", "4", "2"} {
			tasks = append(tasks, course.Task{ID: course.ID(id), Completed: g.done[id]})
		}
		g.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": 7, "tasks": tasks})
	case "/api/courses/7/tasks/2/toggle":
		g.mu.Lock()
		g.done["2"] = !g.done["2"]
		g.mu.Unlock()
		_, _ = w.Write([]byte(`{"completed":2,"total":4,"percent":50}`))
	case "/api/courses/7/tasks/3/toggle":
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Forbidden"}`))
	case "/api/feedback":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not Found"}`))
	}
}

func (g *gateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func TestTransport(t *testing.T) {
	g, srv := newGateway(t)
	store := NewMemoryTokenStore("a.b.c")
	var cleared bool
	c := NewWithHTTPClient(srv.URL, &http.Client{Transport: &Transport{
		Store:          store,
		OnUnauthorized: func() { cleared = true },
	}})

	n, err := c.UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("UnreadCount() error = %v", err)
	}
	assert.Equal(t, 3, n)
	assert.Equal(t, "Bearer a.b.c", g.requests[0].Header.Get("Authorization"))

	g.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"authentication required"}`))
	}
	_, err = c.UnreadCount(context.Background())
	assert.True(t, IsUnauthorized(err), "error = %v", err)
	assert.EqualError(t, err, "401: authentication required")
	token, _ := store.Token()
	assert.Empty(t, token, "a 401 clears the stored token")
	assert.True(t, cleared)

	_, _ = c.UnreadCount(context.Background())
	assert.Empty(t, g.requests[2].Header.Get("Authorization"))
}

func TestFileTokenStore(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "pathwise", "token"))

	token, err := store.Token()
	assert.NoError(t, err)
	assert.Empty(t, token)

	assert.NoError(t, store.SetToken(" a.b.c\n"))
	token, _ = store.Token()
	assert.Equal(t, "a.b.c", token)

	assert.NoError(t, store.Clear())
	assert.NoError(t, store.Clear(), "clearing twice is fine")
	token, _ = store.Token()
	assert.Empty(t, token)
}

func TestSubmitFeedback(t *testing.T) {
	g, srv := newGateway(t)
	c := New(srv.URL, NewMemoryTokenStore("t"), time.Second)

	err := c.SubmitFeedback(context.Background(), feedback.Feedback{Comment: " \n\t"})
	assert.Equal(t, ErrEmptyComment, err)
	assert.Equal(t, 0, g.count(), "an empty comment never reaches the gateway")

	err = c.SubmitFeedback(context.Background(), feedback.Feedback{Comment: " Great ", Rating: 5})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"comment":"Great","rating":5}`, g.bodies[0])
}

func TestProgressTracker(t *testing.T) {
	_, srv := newGateway(t)
	c := New(srv.URL, NewMemoryTokenStore("t"), time.Second)
	pt := NewProgressTracker(c, "7")
	ctx := context.Background()

	p, err := pt.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	assert.Equal(t, course.Progress{Completed: 1, Total: 4, Percent: 25}, p)
	assert.Equal(t, course.ID("1"), pt.Tasks()[0].ID, "tasks are ordered")

	p, err = pt.Toggle(ctx, "2")
	assert.NoError(t, err)
	assert.Equal(t, course.Progress{Completed: 2, Total: 4, Percent: 50}, p)

	p, err = pt.Toggle(ctx, "3")
	assert.Error(t, err)
	assert.Equal(t, 50, p.Percent, "a refused toggle is undone")

	_, err = pt.Toggle(ctx, "99")
	assert.Equal(t, ErrUnknownTask, err)
}

func TestUnreadPoller_skipsOverlappingTicks(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	counts := make(chan int, 10)

	p := &UnreadPoller{
		Interval: 5 * time.Millisecond,
		Fetch: func(ctx context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return 2, nil
		},
		OnCount: func(n int) {
			select {
			case counts <- n:
			default:
			}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no poll starts while one is in flight")
	assert.True(t, p.Skipped() > 0)

	close(release)
	select {
	case n := <-counts:
		assert.Equal(t, 2, n)
	case <-time.After(time.Second):
		t.Fatal("poller never reported a count")
	}

	cancel()
	<-done
}

func TestUnreadPoller_nonPositiveInterval(t *testing.T) {
	assert.Equal(t, DefaultPollInterval, NewUnreadPoller(&Client{}, 0, nil).Interval)
	assert.Equal(t, DefaultPollInterval, NewUnreadPoller(&Client{}, -time.Second, nil).Interval)

	polled := make(chan struct{}, 1)
	p := &UnreadPoller{
		Interval: -1,
		Fetch: func(ctx context.Context) (int, error) {
			select {
			case polled <- struct{}{}:
			default:
			}
			return 0, nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("poller never polled")
	}
	cancel()
	<-done
}
