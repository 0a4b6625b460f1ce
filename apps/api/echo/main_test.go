package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/academia/apps/api/echo"
	"github.com/trezcool/academia/core/policy"
	testutils "github.com/trezcool/academia/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type echoMap = map[string]interface{}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantData interface{} // nil skips the body check
}

func setup(t *testing.T) (*testutils.Env, *echoapi.Server) {
	env := testutils.NewEnv(t)
	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:        env.Conf,
		Logger:      env.Logger,
		Validate:    env.Validate,
		Translator:  env.Translator,
		Metrics:     env.Metrics,
		Accounts:    env.Accounts,
		Courses:     env.Courses,
		Enrollments: env.Enrollments,
		Reviews:     env.Reviews,
	})
	return env, srv
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	if b, ok := obj.([]byte); ok {
		return b
	}
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func newAuthRequest(t *testing.T, method, path, token string, body interface{}) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		buf.Write(marshalObj(t, body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, env *testutils.Env, actor policy.Actor) string {
	t.Helper()
	token, err := echoapi.GenerateToken(env.Conf, echoapi.NewClaims(env.Conf, actor.ID, "", time.Hour))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func serve(t *testing.T, srv http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(t, method, path, token, body)
	srv.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the response body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode() failed: %v; body %s", err, rec.Body.String())
	}
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData != nil {
		assert.JSONEq(t, string(marshalObj(t, tt.wantData)), rec.Body.String())
	}
}

func runHTTPTests(t *testing.T, srv http.Handler, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, srv, tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}
