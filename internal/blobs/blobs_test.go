package blobs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "uuid with extension", input: "0b7e1c1a-4a4e-4f0e-9b4e-3f0a7d6c2e11.png", valid: true},
		{name: "no extension", input: "abc", valid: true},
		{name: "empty", input: "", valid: false},
		{name: "dot dot", input: "..", valid: false},
		{name: "traversal", input: "../albums.json", valid: false},
		{name: "nested path", input: "a/b.png", valid: false},
		{name: "windows separator", input: `a\b.png`, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.valid && err != nil {
				t.Errorf("Expected %q to be valid, got %v", tt.input, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidName) {
				t.Errorf("Expected ErrInvalidName for %q, got %v", tt.input, err)
			}
		})
	}
}

func TestLocalPutOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	l, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	ctx := context.Background()
	want := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	if err := l.Put(ctx, "img.png", want, "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rc, err := l.Open(ctx, "img.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the final file in %s, found %d entries", dir, len(entries))
	}
}

func TestLocalOpenMissing(t *testing.T) {
	l, _ := NewLocal(t.TempDir())
	if _, err := l.Open(context.Background(), "missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalRejectsTraversal(t *testing.T) {
	l, _ := NewLocal(t.TempDir())
	if err := l.Put(context.Background(), "../escape.png", []byte("x"), "image/png"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{ETag: aws.String(`"etag"`)}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3PutOpen(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	store := NewS3WithClient(fake, "gallery", "images")
	ctx := context.Background()

	if err := store.Put(ctx, "a.jpg", []byte("jpeg bytes"), "image/jpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := fake.objects["gallery/images/a.jpg"]; !ok {
		t.Errorf("Expected object under prefixed key, have %v", fake.objects)
	}
	if fake.types["images/a.jpg"] != "image/jpeg" {
		t.Errorf("Expected content type image/jpeg, got %q", fake.types["images/a.jpg"])
	}

	rc, err := store.Open(ctx, "a.jpg")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "jpeg bytes" {
		t.Errorf("Expected round-tripped bytes, got %q", got)
	}

	if _, err := store.Open(ctx, "missing.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
