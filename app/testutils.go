package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hikarune/postfeed/internal/blobservice"
	"github.com/hikarune/postfeed/internal/common"
	"github.com/hikarune/postfeed/internal/mailservice"
	"github.com/hikarune/postfeed/internal/notifyservice"
	"github.com/hikarune/postfeed/internal/postservice"
	"github.com/hikarune/postfeed/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

func newTestApplication(t *testing.T) (*application, *sql.DB) {
	db := common.TestDB("file://../migrations", t)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	rabbitURI := common.TestRabbitMQ(t)
	rabbitmq, err := common.NewMessageBroker(rabbitURI)
	assert.NoError(t, err)

	err = common.SetupUserExchange(rabbitmq)
	assert.NoError(t, err)

	err = common.SetupPostExchange(rabbitmq)
	assert.NoError(t, err)

	cfg := &Config{
		Environment:  "test",
		Version:      "test",
		BlobBackend:  "memory",
		AuthStrategy: "token",
	}

	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	blobs := blobservice.NewMemoryStore()
	auth := userservice.NewTokenAuthenticator(db)

	notifyService := notifyservice.NewNotifyService(rabbitmq, logger)
	t.Cleanup(notifyService.Close)

	app := &application{
		config:        cfg,
		logger:        logger,
		userService:   userservice.NewUserService(db, rabbitmq, auth, cache, logger),
		postService:   postservice.NewPostService(db, blobs, rabbitmq, cache, logger),
		notifyService: notifyService,
		mailService:   mailservice.NewMailService(rabbitmq, "localhost", "user", "password", "sender@example.com", 25, logger),
		blobs:         blobs,
		broker:        rabbitmq,
	}

	return app, db
}

// registerAndLogin provisions a user straight through the service layer and
// hands back a bearer token for it.
func registerAndLogin(t *testing.T, app *application, username, email, password string) *string {
	t.Helper()

	ctx := context.Background()

	_, err := app.userService.Register(ctx, username, email, password)
	assert.NoError(t, err)

	creds, err := app.userService.Login(ctx, username, password)
	assert.NoError(t, err)

	return &creds.Token
}

func (ts *testServer) post(t *testing.T, path string, data any, token *string) (int, http.Header, envelope) {
	jsonPayload, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}

	body := bytes.NewReader(jsonPayload)
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}
	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

type testUpload struct {
	filename    string
	contentType string
	content     []byte
}

func multipartBody(t *testing.T, fields map[string]string, upload *testUpload) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		err := writer.WriteField(key, value)
		if err != nil {
			t.Fatal(err)
		}
	}

	if upload != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, upload.filename))
		header.Set("Content-Type", upload.contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatal(err)
		}
		_, err = part.Write(upload.content)
		if err != nil {
			t.Fatal(err)
		}
	}

	err := writer.Close()
	if err != nil {
		t.Fatal(err)
	}

	return body, writer.FormDataContentType()
}

func (ts *testServer) postForm(t *testing.T, path string, fields map[string]string, upload *testUpload, token *string) (int, http.Header, envelope) {
	body, contentType := multipartBody(t, fields, upload)

	req, err := http.NewRequest(http.MethodPost, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	req.Header.Set("Content-Type", contentType)
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}
	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) putForm(t *testing.T, path string, fields map[string]string, upload *testUpload, token *string) (int, http.Header, envelope) {
	body, contentType := multipartBody(t, fields, upload)

	req, err := http.NewRequest(http.MethodPut, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	req.Header.Set("Content-Type", contentType)
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}
	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}
	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) delete(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	req, err := http.NewRequest(http.MethodDelete, ts.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}
	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}
