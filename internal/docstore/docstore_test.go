package docstore

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu       sync.Mutex
	objects  map[string][]byte
	putErr   error
	putFails int
	putCalls int
	getErr   error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putErr != nil {
		return nil, m.putErr
	}
	if m.putFails > 0 {
		m.putFails--
		return nil, &s3NotFound{}
	}
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(string(data))),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func TestNewDisabledWithoutCredentials(t *testing.T) {
	if s := New(Config{}); s != nil {
		t.Error("expected nil storage without credentials")
	}
	if s := New(Config{Bucket: "docs", AccessKey: "k", SecretKey: "s"}); s == nil {
		t.Error("expected storage with full credentials")
	}
}

func TestUploadDownloadDelete(t *testing.T) {
	mock := newMockS3()
	storage := &Storage{cfg: Config{Bucket: "docs"}, client: mock}

	key := NewKey("handbook.pdf")
	if !strings.HasPrefix(key, "documents/") || !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("key = %q", key)
	}

	body := strings.NewReader("file contents")
	if err := storage.Upload(context.Background(), key, "application/pdf", body, int64(body.Len())); err != nil {
		t.Fatalf("upload: %v", err)
	}

	rc, _, err := storage.Download(context.Background(), key)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "file contents" {
		t.Errorf("downloaded %q", data)
	}

	if err := storage.Delete(context.Background(), key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := storage.Download(context.Background(), key); err == nil {
		t.Error("expected error downloading deleted object")
	}
}

func TestUploadRetriesTransientFailures(t *testing.T) {
	mock := newMockS3()
	mock.putFails = 2
	storage := &Storage{cfg: Config{Bucket: "docs"}, client: mock}

	body := strings.NewReader("file contents")
	if err := storage.Upload(context.Background(), "documents/x.txt", "text/plain", body, int64(body.Len())); err != nil {
		t.Fatalf("upload after transient failures: %v", err)
	}
	if mock.putCalls != 3 {
		t.Errorf("put calls = %d, want 3", mock.putCalls)
	}
	if string(mock.objects["documents/x.txt"]) != "file contents" {
		t.Error("stored body lost across retries")
	}
}

func TestUploadGivesUp(t *testing.T) {
	mock := newMockS3()
	mock.putErr = &s3NotFound{}
	storage := &Storage{cfg: Config{Bucket: "docs"}, client: mock}

	body := strings.NewReader("x")
	if err := storage.Upload(context.Background(), "documents/x.txt", "text/plain", body, 1); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if mock.putCalls != 4 {
		t.Errorf("put calls = %d, want 4", mock.putCalls)
	}
}

func TestKeysAreUnique(t *testing.T) {
	a := NewKey("report.xlsx")
	b := NewKey("report.xlsx")
	if a == b {
		t.Error("two keys for the same filename collide")
	}
}
