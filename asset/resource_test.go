package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := NewResource(thisFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()
}

func TestHttpResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	thisDir := filepath.Dir(thisFile)

	server := httptest.NewServer(http.FileServer(http.Dir(thisDir)))
	defer server.Close()

	fetchUrl := server.URL + "/" + filepath.Base(thisFile)
	res, err := NewResource(fetchUrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	fetchUrl = server.URL + "/file-not-found.foo"
	expError := fmt.Sprintf("resource: could not fetch '%s': status %d", fetchUrl, 404)
	_, err = NewResource(fetchUrl, nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

type closeTrackingTransport struct {
	next         http.RoundTripper
	opened       int
	closedBodies int
}

func (tr *closeTrackingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := tr.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	tr.opened++
	resp.Body = &trackedBody{ReadCloser: resp.Body, tr: tr}
	return resp, nil
}

type trackedBody struct {
	io.ReadCloser
	tr *closeTrackingTransport
}

func (b *trackedBody) Close() error {
	b.tr.closedBodies++
	return b.ReadCloser.Close()
}

func TestHttpResourceErrorClosesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	tr := &closeTrackingTransport{next: http.DefaultTransport}
	http.DefaultTransport = tr
	defer func() { http.DefaultTransport = tr.next }()

	for i := 0; i < 3; i++ {
		if _, err := NewResource(server.URL+"/missing.obj", nil); err == nil {
			t.Fatal("expected an error for a 410 response")
		}
	}
	if tr.opened != 3 || tr.closedBodies != 3 {
		t.Fatalf("expected 3 response bodies to be closed; got %d of %d", tr.closedBodies, tr.opened)
	}
}

func TestRelativeResources(t *testing.T) {
	serverHits := 0
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHits++
		if r.URL.Path == "/foo/file1.go" {
			w.Write([]byte("OK"))
		} else if r.URL.Path == "/foo/file2.go" {
			w.Write([]byte("OK"))
		} else {
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	res1, err := NewResource(server.URL+"/foo/file1.go", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res1.Close()
	res2, err := NewResource("file2.go", res1)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Close()

	if serverHits != 2 {
		t.Fatalf("expected server to receive 2 requests; got %d", serverHits)
	}
}

func TestUnsupportedResourceScheme(t *testing.T) {
	expError := "resource: unsupported scheme 'gopher'"
	_, err := NewResource("gopher://digging.go", nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestResourceConnectionRefusedError(t *testing.T) {
	_, err := NewResource("http://localhost:12345/foo.go", nil)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected to get 'connection refused error'; got %v", err)
	}
}

func TestS3Resource(t *testing.T) {
	var requestPaths []string
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestPaths = append(requestPaths, r.URL.Path)
		switch r.URL.Path {
		case "/scenes/models/teapot.obj", "/scenes/models/teapot.mtl":
			w.Write([]byte("OK"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()
	setupS3Env(t, server.URL)

	res, err := NewResource("s3://scenes/models/teapot.obj", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	data, err := io.ReadAll(res)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "OK" {
		t.Fatalf("expected to read 'OK'; got %q", string(data))
	}
	if !res.IsRemote() || res.RemotePath() != "teapot.obj" {
		t.Fatalf("expected remote resource with remote path teapot.obj; got %s", res.RemotePath())
	}

	// Relative paths resolve against the parent object key
	res2, err := NewResource("teapot.mtl", res)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Close()
	if res2.Path() != "s3://scenes/models/teapot.mtl" {
		t.Fatalf("expected relative resource path s3://scenes/models/teapot.mtl; got %s", res2.Path())
	}

	_, err = NewResource("s3://scenes/missing.obj", nil)
	if err == nil || !strings.Contains(err.Error(), "resource: could not fetch 's3://scenes/missing.obj'") {
		t.Fatalf("expected fetch error for missing object; got %v", err)
	}

	expPaths := []string{"/scenes/models/teapot.obj", "/scenes/models/teapot.mtl", "/scenes/missing.obj"}
	if strings.Join(requestPaths, ",") != strings.Join(expPaths, ",") {
		t.Fatalf("expected requests %v; got %v", expPaths, requestPaths)
	}
}

func TestPutS3Object(t *testing.T) {
	var (
		uploadPath string
		uploadBody []byte
	)
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		uploadPath = r.URL.Path
		uploadBody, _ = io.ReadAll(r.Body)
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()
	setupS3Env(t, server.URL)

	err := PutS3Object(context.Background(), S3ConfigFromEnv(), "s3://scenes/out/scene.zip", []byte("payload"), "application/zip")
	if err != nil {
		t.Fatal(err)
	}
	if uploadPath != "/scenes/out/scene.zip" || string(uploadBody) != "payload" {
		t.Fatalf("unexpected upload to %s with body %q", uploadPath, string(uploadBody))
	}
}

func TestParseS3Location(t *testing.T) {
	type spec struct {
		location  string
		expBucket string
		expKey    string
		expErr    string
	}
	specs := []spec{
		{"s3://bucket/path/to/key.zip", "bucket", "path/to/key.zip", ""},
		{"s3://bucket/", "", "", "must specify a bucket and a key"},
		{"s3:///key", "", "", "must specify a bucket and a key"},
		{"http://bucket/key", "", "", "expected s3 URL"},
	}

	for index, s := range specs {
		bucket, key, err := ParseS3Location(s.location)
		if s.expErr != "" {
			if err == nil || !strings.Contains(err.Error(), s.expErr) {
				t.Fatalf("[spec %d] expected error containing %q; got %v", index, s.expErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if bucket != s.expBucket || key != s.expKey {
			t.Fatalf("[spec %d] expected bucket %q and key %q; got %q and %q", index, s.expBucket, s.expKey, bucket, key)
		}
	}
}

func TestS3ConfigFromEnv(t *testing.T) {
	t.Setenv("S3_ACCESS_KEY", "access")
	t.Setenv("S3_SECRET_KEY", "secret")
	t.Setenv("S3_ENDPOINT", "")
	t.Setenv("S3_REGION", "")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg := S3ConfigFromEnv()
	if cfg.AccessKey != "access" || cfg.SecretKey != "secret" || cfg.Region != "eu-west-1" || cfg.Endpoint != "" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestResourceFromStream(t *testing.T) {
	res := NewResourceFromStream("embedded", strings.NewReader("payload"))
	defer res.Close()

	data, err := io.ReadAll(res)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" || res.IsRemote() || res.Path() != "embedded" {
		t.Fatalf("unexpected stream resource %q (path %s)", string(data), res.Path())
	}
}

func setupS3Env(t *testing.T, endpoint string) {
	t.Setenv("S3_ACCESS_KEY", "test-access-key")
	t.Setenv("S3_SECRET_KEY", "test-secret-key")
	t.Setenv("S3_ENDPOINT", endpoint)
	t.Setenv("S3_REGION", "us-east-1")
}
