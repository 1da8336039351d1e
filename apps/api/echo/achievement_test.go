package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/pathwise/core/origin"
	"github.com/trezcool/pathwise/testutil"
)

func TestAchievementAPI(t *testing.T) {
	app := setup(t)
	app.origin.Handle = func(req origin.Request) (origin.Response, error) {
		switch {
		case req.Method == http.MethodPost && req.Path == "/api/achievements":
			return testutil.JSON(http.StatusCreated, `{"id":9,"title":"Marathon"}`)
		case req.Path == "/api/achievements/9/like":
			return testutil.JSON(http.StatusNoContent, "")
		case req.Path == "/api/achievements/404":
			return testutil.JSON(http.StatusNotFound, `{"message":"Achievement not found"}`)
		case req.Path == "/api/achievements/500":
			return testutil.JSON(http.StatusInternalServerError, "<html>oops</html>")
		}
		return testutil.JSON(http.StatusOK, `[{"id":9}]`)
	}
	token := userToken(t)

	tests := []httpTest{
		{
			name:     "list",
			method:   http.MethodGet,
			path:     "/api/achievements?page=2",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`[{"id":9}]`),
		},
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/api/achievements",
			body:     []byte(`{"title":"Marathon","description":"42km in 4h"}`),
			token:    token,
			wantCode: http.StatusCreated,
			wantData: []byte(`{"id":9,"title":"Marathon"}`),
		},
		{
			name:     "create: missing fields",
			method:   http.MethodPost,
			path:     "/api/achievements",
			body:     []byte(`{"title":"  "}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error":"invalid request","fields":{"title":"this field is required","description":"this field is required"}}`),
		},
		{
			name:     "create: malformed json",
			method:   http.MethodPost,
			path:     "/api/achievements",
			body:     []byte(`{"title":`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "like: no content",
			method:   http.MethodPost,
			path:     "/api/achievements/9/like",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "not found is relayed",
			method:   http.MethodGet,
			path:     "/api/achievements/404",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: []byte(`{"message":"Achievement not found"}`),
		},
		{
			name:     "non json error",
			method:   http.MethodGet,
			path:     "/api/achievements/500",
			token:    token,
			wantCode: http.StatusInternalServerError,
			wantData: []byte(`{"error":"Internal Server Error"}`),
		},
		{
			name:     "comments",
			method:   http.MethodGet,
			path:     "/api/achievements/9/comments",
			token:    token,
			wantCode: http.StatusOK,
		},
		{
			name:     "add comment: blank",
			method:   http.MethodPost,
			path:     "/api/achievements/9/comments",
			body:     []byte(`{"content":"   "}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
	}
	runHTTPTests(t, app, tests)

	var paths []string
	for _, req := range app.origin.Requests() {
		paths = append(paths, req.Method+" "+req.Path)
		assert.Equal(t, token, req.Token)
	}
	assert.Equal(t, []string{
		"GET /api/achievements",
		"POST /api/achievements",
		"POST /api/achievements/9/like",
		"GET /api/achievements/404",
		"GET /api/achievements/500",
		"GET /api/achievements/9/comments",
	}, paths, "invalid bodies never reach the origin")
	assert.Equal(t, "2", app.origin.Requests()[0].Query.Get("page"))
}

func TestAchievementAPI_originDown(t *testing.T) {
	app := setup(t)
	app.origin.Handle = func(req origin.Request) (origin.Response, error) {
		return origin.Response{}, errConnRefused
	}

	runHTTPTests(t, app, []httpTest{{
		name:     "unreachable origin",
		method:   http.MethodGet,
		path:     "/api/achievements",
		token:    userToken(t),
		wantCode: http.StatusInternalServerError,
		wantData: marshalObj(t, httpErr{Error: "Internal Server Error"}),
	}})
}
