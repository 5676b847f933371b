package dispatch

import (
	"bytes"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), buf
}

// serveRoute registers a single route on a fresh echo instance and runs
// one request through it.
func serveRoute(t *testing.T, logger *slog.Logger, route Route, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	reg := NewRegistry(logger)
	require.NoError(t, reg.Register(route))
	reg.Apply(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_GetQueryFirstValueWins(t *testing.T) {
	logger, _ := newTestLogger()
	var got Args
	route := Route{
		Method: "GET",
		Path:   "/search",
		Name:   "search",
		Params: []Param{Optional("k")},
		Handler: func(args Args) (any, error) {
			got = args
			return args.String("k"), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/search?k=1&k=2", nil)
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", got.String("k"))
}

func TestHandler_PathVariableWinsOverBody(t *testing.T) {
	logger, buf := newTestLogger()
	var got Args
	route := Route{
		Method: "POST",
		Path:   "/post/{id}",
		Name:   "updatePost",
		Params: []Param{VarKw("kw")},
		Handler: func(args Args) (any, error) {
			got = args
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/post/42", strings.NewReader(`{"id":"99","title":"T"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "42", got.String("id"))
	assert.Equal(t, "T", got.String("title"))
	assert.Contains(t, buf.String(), "duplicate argument name")
}

func TestHandler_PathVariableWinsOverQuery(t *testing.T) {
	logger, buf := newTestLogger()
	var got Args
	route := Route{
		Method: "GET",
		Path:   "/user/{id}",
		Name:   "getUser",
		Params: []Param{VarKw("kw")},
		Handler: func(args Args) (any, error) {
			got = args
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/user/7?id=9", nil)
	serveRoute(t, logger, route, req)

	assert.Equal(t, "7", got.String("id"))
	assert.Contains(t, buf.String(), "duplicate argument name")
}

func TestHandler_ShrinksBagToNamedParams(t *testing.T) {
	logger, _ := newTestLogger()
	var got Args
	route := Route{
		Method: "POST",
		Path:   "/register",
		Name:   "register",
		Params: []Param{Required("name"), Optional("email")},
		Handler: func(args Args) (any, error) {
			got = args
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/register",
		strings.NewReader(`{"name":"bob","email":"b@example.com","admin":true}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	serveRoute(t, logger, route, req)

	assert.Equal(t, "bob", got.String("name"))
	assert.Equal(t, "b@example.com", got.String("email"))
	assert.False(t, got.Has("admin"))
}

func TestHandler_JSONBodyMustBeObject(t *testing.T) {
	logger, _ := newTestLogger()
	called := false
	route := Route{
		Method: "POST",
		Path:   "/register",
		Name:   "register",
		Params: []Param{Required("name")},
		Handler: func(args Args) (any, error) {
			called = true
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`[1,2,3]`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be object")
	assert.False(t, called)
}

func TestHandler_MissingContentType(t *testing.T) {
	logger, _ := newTestLogger()
	route := Route{
		Method: "POST",
		Path:   "/register",
		Name:   "register",
		Params: []Param{Required("name")},
		Handler: func(args Args) (any, error) {
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"name":"bob"}`))
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing Content-Type")
}

func TestHandler_UnsupportedContentType(t *testing.T) {
	logger, _ := newTestLogger()
	route := Route{
		Method: "POST",
		Path:   "/register",
		Name:   "register",
		Params: []Param{Required("name")},
		Handler: func(args Args) (any, error) {
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("name=bob"))
	req.Header.Set(echo.HeaderContentType, "text/plain")
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unsupported Content-Type: text/plain")
}

func TestHandler_MissingRequiredArgument(t *testing.T) {
	logger, _ := newTestLogger()
	route := Route{
		Method: "POST",
		Path:   "/register",
		Name:   "register",
		Params: []Param{Required("name"), Optional("email")},
		Handler: func(args Args) (any, error) {
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"b@example.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing argument: name")
}

func TestHandler_RequiredSatisfiedByPathVariable(t *testing.T) {
	logger, _ := newTestLogger()
	route := Route{
		Method: "GET",
		Path:   "/hello/{name}",
		Name:   "hello",
		Params: []Param{Required("name")},
		Handler: func(args Args) (any, error) {
			return "hello, " + args.String("name"), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/hello/bob", nil)
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello, bob")
}

func TestHandler_RoundTrip(t *testing.T) {
	// f(id, *, title, content=None) tagged POST /post/{id} with body
	// {"title":"T"} and path variable id=42 receives exactly
	// {id:"42", title:"T"}.
	logger, _ := newTestLogger()
	var got Args
	route := Route{
		Method: "POST",
		Path:   "/post/{id}",
		Name:   "createPost",
		Params: []Param{Pos("id"), Required("title"), Optional("content")},
		Handler: func(args Args) (any, error) {
			got = args
			return map[string]any{"id": args.String("id"), "title": args.String("title")}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/post/42", strings.NewReader(`{"title":"T"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serveRoute(t, logger, route, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Args{"id": "42", "title": "T"}, got)
	assert.JSONEq(t, `{"id":"42","title":"T"}`, rec.Body.String())
}

func TestHandler_APIErrorNormalized(t *testing.T) {
	logger, _ := newTestLogger()
	route := Route{
		Method: "GET",
		Path:   "/secret",
		Name:   "secret",
		Params: nil,
		Handler: func(args Args) (any, error) {
			return nil, NewAPIError("403", "forbidden", "no access")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"403","data":"forbidden","message":"no access"}`, rec.Body.String())
}

func TestHandler_OtherErrorsPropagate(t *testing.T) {
	logger, _ := newTestLogger()
	route := Route{
		Method: "GET",
		Path:   "/broken",
		Name:   "broken",
		Handler: func(args Args) (any, error) {
			return nil, errors.New("boom")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/broken", nil)
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_RequestInjection(t *testing.T) {
	logger, _ := newTestLogger()
	var got *http.Request
	route := Route{
		Method: "GET",
		Path:   "/info",
		Name:   "info",
		Params: []Param{Request()},
		Handler: func(args Args) (any, error) {
			got = args.Request()
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	serveRoute(t, logger, route, req)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
}

func TestHandler_NoNamedParamsSkipsBodyDecoding(t *testing.T) {
	// A handler wanting only path variables never triggers content-type
	// checks, even on POST.
	logger, _ := newTestLogger()
	var got Args
	route := Route{
		Method: "POST",
		Path:   "/ping/{id}",
		Name:   "ping",
		Params: []Param{Pos("id")},
		Handler: func(args Args) (any, error) {
			got = args
			return "pong", nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/ping/5", nil)
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Args{"id": "5"}, got)
}

func TestHandler_FormUrlencoded(t *testing.T) {
	logger, _ := newTestLogger()
	var got Args
	route := Route{
		Method: "POST",
		Path:   "/register",
		Name:   "register",
		Params: []Param{Required("name"), Optional("email")},
		Handler: func(args Args) (any, error) {
			got = args
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/register",
		strings.NewReader("name=bob&email=b%40example.com"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "bob", got.String("name"))
	assert.Equal(t, "b@example.com", got.String("email"))
}

func TestHandler_MultipartForm(t *testing.T) {
	logger, _ := newTestLogger()
	var got Args
	route := Route{
		Method: "POST",
		Path:   "/register",
		Name:   "register",
		Params: []Param{Required("name")},
		Handler: func(args Args) (any, error) {
			got = args
			return nil, nil
		},
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("name", "bob"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/register", body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "bob", got.String("name"))
}

func TestHandler_ResponseControlsStatusCode(t *testing.T) {
	logger, _ := newTestLogger()
	route := Route{
		Method: "POST",
		Path:   "/posts",
		Name:   "createPost",
		Params: []Param{Required("title")},
		Handler: func(args Args) (any, error) {
			return Created(map[string]string{"title": args.String("title")}), nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{"title":"T"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serveRoute(t, logger, route, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"title":"T"}`, rec.Body.String())
}

func TestHandler_LogsCallArguments(t *testing.T) {
	logger, buf := newTestLogger()
	route := Route{
		Method: "GET",
		Path:   "/hello/{name}",
		Name:   "hello",
		Params: []Param{Required("name")},
		Handler: func(args Args) (any, error) {
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/hello/bob", nil)
	serveRoute(t, logger, route, req)

	assert.Contains(t, buf.String(), "call handler")
	assert.Contains(t, buf.String(), "hello")
}
