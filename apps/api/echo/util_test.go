package echoapi

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/achievement"
	"github.com/trezcool/pathwise/core/audit"
	"github.com/trezcool/pathwise/core/auth"
	"github.com/trezcool/pathwise/core/course"
	"github.com/trezcool/pathwise/core/dashboard"
	"github.com/trezcool/pathwise/core/feedback"
	"github.com/trezcool/pathwise/core/message"
	emailsvc "github.com/trezcool/pathwise/services/email"
	inmemdb "github.com/trezcool/pathwise/storage/database/inmem"
	"github.com/trezcool/pathwise/testutil"
)

var errMissingToken = httpErr{Error: "authentication required"}

type testApp struct {
	Server
	origin   *testutil.Origin
	auditSvc *audit.Service
	mailSvc  *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T, configure ...func(conf *core.Config)) *testApp {
	t.Helper()
	conf := testutil.Config()
	conf.Mail.FeedbackRecipients = []mail.Address{{Address: "staff@pathwise.test"}}
	for _, fn := range configure {
		fn(conf)
	}

	logger := testutil.Logger()
	validate, translator := core.NewValidator()
	o := new(testutil.Origin)
	auditSvc := audit.NewService(inmemdb.NewAuditRepository())
	mailSvc := emailsvc.NewConsoleServiceMock(conf, log.New(ioutil.Discard, "", 0))

	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Inspector:      auth.NewInspector(conf.Auth.JWTSecret),
		AchievementSvc: achievement.NewService(o, validate),
		MessageSvc:     message.NewService(o, validate),
		CourseSvc:      course.NewService(o),
		FeedbackSvc:    feedback.NewService(o, validate, mailSvc, conf.Mail.FeedbackRecipients),
		DashboardSvc:   dashboard.NewService(o, conf.Backend.DashboardSections, logger),
		AuditSvc:       auditSvc,
		Validate:       validate,
		Translator:     translator,
	})
	return &testApp{Server: srv, origin: o, auditSvc: auditSvc, mailSvc: mailSvc}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func userToken(t *testing.T) string {
	return testutil.Token(t, map[string]interface{}{"sub": "42", "username": "jane", "roles": []string{"ROLE_USER"}})
}

func adminToken(t *testing.T) string {
	return testutil.Token(t, map[string]interface{}{"sub": "admin"})
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
