package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/pathwise/core/origin"
	"github.com/trezcool/pathwise/testutil"
)

func TestCount(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{name: "array", body: `[{"id":1},{"id":2},{"id":3}]`, want: 3},
		{name: "empty array", body: `[]`, want: 0},
		{name: "totalElements", body: `{"totalElements":12,"content":[{}]}`, want: 12},
		{name: "total", body: `{"total":7}`, want: 7},
		{name: "count", body: `{"count":4}`, want: 4},
		{name: "content only", body: `{"content":[{},{}]}`, want: 2},
		{name: "string count", body: `{"count":"many"}`, wantErr: true},
		{name: "unknown object", body: `{"foo":1}`, wantErr: true},
		{name: "scalar", body: `"hello"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Count([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Count() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Stats(t *testing.T) {
	conf := testutil.Config()
	o := &testutil.Origin{Handle: func(req origin.Request) (origin.Response, error) {
		switch req.Path {
		case "/api/admin/users":
			return testutil.JSON(http.StatusOK, `[{},{},{}]`)
		case "/api/achievements":
			return testutil.JSON(http.StatusOK, `{"totalElements":10}`)
		case "/api/courses":
			return testutil.JSON(http.StatusOK, `[{}]`)
		case "/api/admin/comments":
			return testutil.JSON(http.StatusInternalServerError, "")
		default:
			return origin.Response{}, errors.Wrap(errors.New("dial tcp 10.0.0.3:8080: connect: connection refused"), "GET /api/feedback")
		}
	}}
	svc := NewService(o, conf.Backend.DashboardSections, testutil.Logger())
	svc.now = func() time.Time { return time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC) }

	stats, err := svc.Stats(context.Background(), "a.b.c")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	assert.Equal(t, map[string]int{"users": 3, "achievements": 10, "courses": 1, "comments": 0, "feedback": 0}, stats.Counts)
	assert.Len(t, stats.Errors, 2)
	assert.Equal(t, "origin answered 500 Internal Server Error", stats.Errors["comments"])
	assert.Equal(t, ReasonUnreachable, stats.Errors["feedback"], "network details stay in the logs")

	for _, req := range o.Requests() {
		assert.Equal(t, "a.b.c", req.Token)
		assert.Equal(t, http.MethodGet, req.Method)
	}
	assert.Len(t, o.Requests(), 5)

	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var payload map[string]interface{}
	_ = json.Unmarshal(data, &payload)
	assert.Equal(t, float64(3), payload["users"])
	assert.Equal(t, "2021-03-01T10:00:00Z", payload["generatedAt"])
	assert.Contains(t, payload["errors"], "comments")
}

func TestService_Stats_allHealthy(t *testing.T) {
	svc := NewService(new(testutil.Origin), map[string]string{"courses": "/api/courses"}, nil)

	stats, err := svc.Stats(context.Background(), "t")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	assert.Equal(t, 0, stats.Counts["courses"])
	assert.Empty(t, stats.Errors)

	data, _ := json.Marshal(stats)
	var payload map[string]interface{}
	_ = json.Unmarshal(data, &payload)
	assert.Equal(t, map[string]interface{}{}, payload["errors"])
}
