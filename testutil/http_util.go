// Package testutil holds HTTP and websocket helpers shared by the api
// package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/gobwas/ws/wsutil"
)

// RequestOptions carries optional basic-auth credentials for a request.
type RequestOptions struct {
	Username string
	Password string
}

// Unmarshal reads and decodes the response body, failing the test on any
// error.
func Unmarshal(res *http.Response, v interface{}, t *testing.T) {
	t.Helper()

	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	if err = json.Unmarshal(body, v); err != nil {
		t.Fatal(err)
	}
}

func Put(url string, request interface{}, t *testing.T, op ...RequestOptions) *http.Response {
	t.Helper()
	return SendRequest(http.MethodPut, url, request, t, op...)
}

func Post(url string, request interface{}, t *testing.T, op ...RequestOptions) *http.Response {
	t.Helper()
	return SendRequest(http.MethodPost, url, request, t, op...)
}

func Delete(url string, t *testing.T, op ...RequestOptions) *http.Response {
	t.Helper()
	return SendRequest(http.MethodDelete, url, nil, t, op...)
}

// SendRequest marshals the request as json and executes it, failing the
// test on any transport error.
func SendRequest(method, url string, request interface{}, t *testing.T, op ...RequestOptions) *http.Response {
	t.Helper()

	body, err := json.Marshal(request)
	if err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest(method, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatal(err)
	}

	if len(op) > 0 {
		req.SetBasicAuth(op[0].Username, op[0].Password)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return res
}

// ReadWs reads one server frame from the websocket connection and decodes
// it into v.
func ReadWs(conn net.Conn, v interface{}, t *testing.T) {
	t.Helper()

	msg, _, err := wsutil.ReadServerData(conn)
	if err != nil {
		t.Fatal(err)
	}
	if err = json.Unmarshal(msg, v); err != nil {
		t.Fatal(err)
	}
}
