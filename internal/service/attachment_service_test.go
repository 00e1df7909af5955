package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"bulletin/internal/models"
	"bulletin/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentService_Validate(t *testing.T) {
	t.Parallel()
	svc := NewAttachmentService(testutil.NewMemoryStore(), 0)

	tests := []struct {
		name     string
		up       Upload
		wantCode string
	}{
		{"png", Upload{Filename: "cat.png", Content: []byte("x")}, ""},
		{"upper case jpeg", Upload{Filename: "CAT.JPEG", Content: []byte("x")}, ""},
		{"webp", Upload{Filename: "a.webp", Content: []byte("x")}, ""},
		{"exe", Upload{Filename: "virus.exe", Content: []byte("x")}, models.CodeUnsupportedType},
		{"double extension", Upload{Filename: "cat.png.exe", Content: []byte("x")}, models.CodeUnsupportedType},
		{"no extension", Upload{Filename: "README", Content: []byte("x")}, models.CodeUnsupportedType},
		{"exactly 5MB", Upload{Filename: "big.gif", Content: make([]byte, 5*1024*1024)}, ""},
		{"6MB", Upload{Filename: "big.gif", Content: make([]byte, 6*1024*1024)}, models.CodeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := svc.Validate(tt.up)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"cat.png", "cat.png"},
		{"My Photo.JPG", "My_Photo.jpg"},
		{"../../etc/passwd.png", "passwd.png"},
		{`C:\Users\bob\pic.gif`, "pic.gif"},
		{"...hidden.webp", "hidden.webp"},
		{"café<script>.png", "cafscript.png"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}

	t.Run("nothing survives", func(t *testing.T) {
		t.Parallel()
		got := SanitizeFilename("한글.png")
		assert.True(t, strings.HasSuffix(got, ".png"))
		assert.Len(t, got, len("12345678.png"))
	})

	t.Run("long names are capped", func(t *testing.T) {
		t.Parallel()
		got := SanitizeFilename(strings.Repeat("a", 300) + ".png")
		assert.Len(t, got, maxSanitizedLength)
		assert.True(t, strings.HasSuffix(got, ".png"))
	})
}

func TestAttachmentService_StoreOpenRemove(t *testing.T) {
	t.Parallel()
	store := testutil.NewMemoryStore()
	svc := NewAttachmentService(store, 0)
	ctx := context.Background()
	png := testutil.TinyPNG(t, 4, 3)

	sf, err := svc.Store(ctx, 42, Upload{Filename: "../My Cat.PNG", Content: png})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/42_My_Cat.png", sf.URL)
	assert.Equal(t, "42_My_Cat.png", sf.Attachment.StoredName)
	assert.Equal(t, "My Cat.PNG", sf.Attachment.OriginalName)
	assert.Equal(t, "image/png", sf.Attachment.ContentType)
	assert.Equal(t, 4, sf.Attachment.Width)
	assert.Equal(t, 3, sf.Attachment.Height)
	assert.True(t, store.Has("42_My_Cat.png"))

	rc, contentType, err := svc.Open(ctx, "42_My_Cat.png")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.True(t, bytes.Equal(png, body))

	svc.Remove(ctx, sf.URL)
	assert.False(t, store.Has("42_My_Cat.png"))

	_, _, err = svc.Open(ctx, "42_My_Cat.png")
	assertCode(t, err, models.CodeNotFound)
	_, _, err = svc.Open(ctx, "../secret")
	assertCode(t, err, models.CodeNotFound)

	// Removing twice or removing foreign URLs is silent.
	svc.Remove(ctx, sf.URL)
	svc.Remove(ctx, "https://example.com/x.png")
}

func TestAttachmentService_StoreFailure(t *testing.T) {
	t.Parallel()
	store := testutil.NewMemoryStore()
	store.FailPut["1_a.png"] = errors.New("bucket offline")
	svc := NewAttachmentService(store, 0)

	_, err := svc.Store(context.Background(), 1, Upload{Filename: "a.png", Content: []byte("x")})
	assertCode(t, err, models.CodeStore)
	assert.NotContains(t, err.(*models.AppError).Message, "bucket")
}

func TestStoredNames(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{"distinct", []string{"a.png", "b.gif"}, []string{"9_a.png", "9_b.gif"}},
		{"same name", []string{"a.png", "a.png", "a.png"}, []string{"9_a.png", "9_a-1.png", "9_a-2.png"}},
		{"same after sanitizing", []string{"dir/a.png", `C:\x\a.PNG`, "a.png"}, []string{"9_a.png", "9_a-1.png", "9_a-2.png"}},
		{"suffix already taken", []string{"a.png", "a-1.png", "a.png"}, []string{"9_a.png", "9_a-1.png", "9_a-2.png"}},
		{"case differs", []string{"Cat.png", "cat.png"}, []string{"9_Cat.png", "9_cat-1.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			uploads := make([]Upload, 0, len(tt.files))
			for _, f := range tt.files {
				uploads = append(uploads, Upload{Filename: f})
			}
			assert.Equal(t, tt.want, StoredNames(9, uploads))
		})
	}
}

func TestAttachmentService_StoreAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("duplicate names keep every file", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewMemoryStore()
		svc := NewAttachmentService(store, 0)

		stored, err := svc.StoreAll(ctx, 5, []Upload{
			{Filename: "a.png", Content: testutil.TinyPNG(t, 1, 1)},
			{Filename: "a.png", Content: testutil.TinyPNG(t, 2, 2)},
		})
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, "/uploads/5_a.png", stored[0].URL)
		assert.Equal(t, "/uploads/5_a-1.png", stored[1].URL)
		assert.Equal(t, 1, stored[0].Width)
		assert.Equal(t, 2, stored[1].Width)
		assert.Equal(t, "a.png", stored[1].OriginalName)
		assert.Equal(t, []string{"5_a-1.png", "5_a.png"}, store.Names())
	})

	t.Run("failure removes earlier files", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewMemoryStore()
		store.FailPut["5_a-1.png"] = errors.New("disk full")
		svc := NewAttachmentService(store, 0)

		_, err := svc.StoreAll(ctx, 5, []Upload{
			{Filename: "a.png", Content: []byte("x")},
			{Filename: "a.png", Content: []byte("y")},
		})
		assertCode(t, err, models.CodeStore)
		assert.Empty(t, store.Names())
	})
}

func TestSafeRune(t *testing.T) {
	t.Parallel()
	for _, r := range "azAZ09._-" {
		assert.True(t, safeRune(r), string(r))
	}
	for _, r := range " /\\:<>é한" {
		assert.False(t, safeRune(r), string(r))
	}
	assert.True(t, isSafeName("12_a-1.png"))
	assert.False(t, isSafeName(".hidden"))
	assert.False(t, isSafeName("a b.png"))
}
