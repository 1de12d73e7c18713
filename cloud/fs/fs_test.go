// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fs

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

func testFilesystem(t *testing.T, fs Filesystem) {
	t.Helper()

	data := []byte{1, 2, 3, 4, 5}
	if err := fs.WriteFile("ocean/disp_0001.ocf", data); err != nil {
		t.Fatal(err)
	}

	read, err := fs.ReadFile("ocean/disp_0001.ocf")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(read, data) {
		t.Error("ReadFile expected", data, "got", read)
	}

	if err := fs.WriteFile("ocean/disp_0001.ocf", data[:2]); err != nil {
		t.Fatal(err)
	}
	if read, _ := fs.ReadFile("ocean/disp_0001.ocf"); !bytes.Equal(read, data[:2]) {
		t.Error("ReadFile after overwrite expected", data[:2], "got", read)
	}

	if _, err := fs.ReadFile("ocean/disp_0002.ocf"); !errors.Is(err, os.ErrNotExist) {
		t.Error("ReadFile of missing file expected os.ErrNotExist got", err)
	}
}

func TestDirFilesystem(t *testing.T) {
	dir := t.TempDir()
	testFilesystem(t, NewDirFilesystem(dir))

	if _, err := os.Stat(dir + "/ocean/disp_0001.ocf.tmp"); !os.IsNotExist(err) {
		t.Error("temporary file expected to be renamed away got", err)
	}
}

// fakeS3 serves path style PUT and GET object requests from memory.
type fakeS3 struct {
	mutex        sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.contentTypes[r.URL.Path] = r.Header.Get("Content-Type")
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Filesystem(t *testing.T) {
	fake := &fakeS3{objects: make(map[string][]byte), contentTypes: make(map[string]string)}
	server := httptest.NewServer(fake)
	defer server.Close()

	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(server.URL),
		Region:           aws.String("us-east-1"),
		S3ForcePathStyle: aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials("id", "secret", ""),
		MaxRetries:       aws.Int(0),
	})
	if err != nil {
		t.Fatal(err)
	}

	fs := NewS3Filesystem(sess, "swell-bakes", "/runs/a/")
	testFilesystem(t, fs)

	if err := fs.WriteFile("manifest.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}

	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	if _, ok := fake.objects["/swell-bakes/runs/a/ocean/disp_0001.ocf"]; !ok {
		t.Error("expected object under prefix, got", len(fake.objects), "objects")
	}
	if ct := fake.contentTypes["/swell-bakes/runs/a/manifest.json"]; ct != "application/json" {
		t.Error("manifest content type expected application/json got", ct)
	}
	if s := fs.String(); s != "s3://swell-bakes/runs/a" {
		t.Error("String expected s3://swell-bakes/runs/a got", s)
	}
}
