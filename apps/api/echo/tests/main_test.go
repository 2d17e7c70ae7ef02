package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	. "github.com/trezcool/sauti/apps/api/echo"
	"github.com/trezcool/sauti/core"
	"github.com/trezcool/sauti/core/faq"
	"github.com/trezcool/sauti/core/report"
	"github.com/trezcool/sauti/core/user"
	"github.com/trezcool/sauti/services/email"
	"github.com/trezcool/sauti/storage/database/inmem"
	"github.com/trezcool/sauti/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type app struct {
	*Server
	conf      *core.Config
	usrRepo   user.Repository
	rptRepo   report.Repository
	mailSvc   *emailsvc.ConsoleServiceMock
	completer *completerMock
}

type completerMock struct {
	answer string
	err    error
}

func (c *completerMock) Complete(context.Context, []faq.Message) (string, error) {
	return c.answer, c.err
}

func setup(t *testing.T) *app {
	db, err := inmemdb.Open()
	require.NoError(t, err)

	conf := testutil.NewConfig()
	logger := testutil.NewLogger()
	validate, translator := testutil.NewValidatorAndTranslator()

	a := &app{
		conf:      conf,
		usrRepo:   inmemdb.NewUserRepository(db),
		rptRepo:   inmemdb.NewReportRepository(db),
		mailSvc:   emailsvc.NewConsoleServiceMock(conf, logger),
		completer: &completerMock{answer: "Hello!"},
	}
	usrSvc := user.NewService(a.usrRepo, validate)
	rptSvc := report.NewService(a.rptRepo, usrSvc, a.mailSvc, validate, logger, core.NewSiteData(conf))
	faqSvc := faq.NewService(a.completer, rptSvc, validate, logger)

	a.Server = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Translator:     translator,
		UserSvc:        usrSvc,
		ReportSvc:      rptSvc,
		FAQSvc:         faqSvc,
		DisableReqLogs: true,
	})
	return a
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

func (a *app) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	a.ServeHTTP(rec, req)
	return rec
}

func (a *app) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	return getSubjectToken(t, conf, usr.SubjectID, time.Hour)
}

func getSubjectToken(t *testing.T, conf *core.Config, subject string, ttl time.Duration) string {
	token, err := GenerateToken(conf.Auth.SigningKey, NewClaims(conf, subject, "", ttl))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
