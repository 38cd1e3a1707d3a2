package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/models"
	"github.com/Pauline-WN/AjaliApp/internal/repository"
	"github.com/Pauline-WN/AjaliApp/internal/storage"
)

func TestParseMediaType(t *testing.T) {
	kind, err := ParseMediaType("image")
	require.NoError(t, err)
	require.Equal(t, models.MediaImage, kind)

	kind, err = ParseMediaType("video")
	require.NoError(t, err)
	require.Equal(t, models.MediaVideo, kind)

	for _, s := range []string{"", "audio", "Image", "images"} {
		_, err := ParseMediaType(s)
		require.ErrorIs(t, err, ErrValidation, s)
	}
}

func TestMediaService_Attach(t *testing.T) {
	f := newIncidentFixture(t)
	ctx := context.Background()
	id := f.create(t, f.alice, "Road accident")

	att, err := f.media.Attach(ctx, id, "image", []byte("png-bytes"), "photo.PNG")
	require.NoError(t, err)
	require.Equal(t, models.MediaImage, att.MediaType)
	require.True(t, strings.HasPrefix(att.URL, "mem://"))
	require.True(t, strings.HasSuffix(att.URL, "_photo.PNG"))

	got, err := f.incidents.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	require.Equal(t, att.URL, got.Images[0].URL)
	require.Empty(t, got.Videos)
}

func TestMediaService_SameNameDoesNotCollide(t *testing.T) {
	f := newIncidentFixture(t)
	ctx := context.Background()
	id := f.create(t, f.alice, "Road accident")

	a, err := f.media.Attach(ctx, id, "image", []byte("one"), "photo.jpg")
	require.NoError(t, err)
	b, err := f.media.Attach(ctx, id, "image", []byte("two"), "photo.jpg")
	require.NoError(t, err)
	require.NotEqual(t, a.URL, b.URL)
	require.Len(t, f.blobs.keys(), 2)
}

func TestMediaService_AttachValidation(t *testing.T) {
	f := newIncidentFixture(t)
	ctx := context.Background()
	id := f.create(t, f.alice, "Road accident")

	for _, tc := range []struct {
		name      string
		mediaType string
		data      []byte
		filename  string
		want      error
	}{
		{"unknown media type", "audio", []byte("x"), "a.mp3", ErrValidation},
		{"empty file", "image", nil, "a.png", ErrValidation},
		{"missing filename", "image", []byte("x"), "", ErrValidation},
		{"executable as image", "image", []byte("x"), "evil.exe", ErrValidation},
		{"video extension as image", "image", []byte("x"), "clip.mp4", ErrValidation},
		{"no extension", "video", []byte("x"), "clip", ErrValidation},
		{"over the limit", "image", make([]byte, 1025), "big.png", ErrPayloadTooLarge},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.media.Attach(ctx, id, tc.mediaType, tc.data, tc.filename)
			require.ErrorIs(t, err, tc.want)
		})
	}
	require.Empty(t, f.blobs.keys())
}

func TestMediaService_AttachUnknownIncident(t *testing.T) {
	f := newIncidentFixture(t)

	_, err := f.media.Attach(context.Background(), 999, "image", []byte("x"), "a.png")
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, f.blobs.keys())
}

func TestMediaService_StorageFailure(t *testing.T) {
	f := newIncidentFixture(t)
	ctx := context.Background()
	id := f.create(t, f.alice, "Road accident")

	f.blobs.putErr = errors.New("quota exceeded")
	_, err := f.media.Attach(ctx, id, "video", []byte("x"), "clip.mov")
	require.ErrorIs(t, err, ErrStorage)

	got, err := f.incidents.Get(ctx, id)
	require.NoError(t, err)
	require.Empty(t, got.Videos)
}

func TestMediaService_RemovesBlobWhenLinkFails(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "alice")
	incidentRepo := repository.NewIncidentRepository(db, zap.NewNop())
	blobs := newMemBlobStore()
	incidents := NewIncidentService(incidentRepo, blobs, zap.NewNop())
	media := NewMediaService(incidentRepo, failingMediaRepository{}, blobs, 0, zap.NewNop())

	id, err := incidents.Create(context.Background(), owner, models.CreateIncidentInput{
		Description: "Road accident",
		Latitude:    ptr(1.0),
		Longitude:   ptr(2.0),
	})
	require.NoError(t, err)

	_, err = media.Attach(context.Background(), id, "image", []byte("x"), "a.png")
	require.ErrorIs(t, err, ErrStorage)
	require.Empty(t, blobs.keys(), "blob must not outlive a failed link")
	require.Len(t, blobs.deleted, 1)
}

func TestBlobKey(t *testing.T) {
	key := blobKey(7, "../../etc/My Photo.JPG")
	require.True(t, strings.HasPrefix(key, "7_"))
	require.True(t, strings.HasSuffix(key, "_My_Photo.JPG"))
	require.NotContains(t, key, "/")

	key = blobKey(7, "фото.png")
	require.True(t, strings.HasSuffix(key, "_upload.png"), key)
}

func TestBlobKey_LongNameIsCapped(t *testing.T) {
	key := blobKey(7, strings.Repeat("a", 300)+".png")
	require.LessOrEqual(t, len(key), 200)
	require.True(t, strings.HasSuffix(key, ".png"), key)
	require.Equal(t, "png", storage.Extension(key))
}

func TestMediaService_AttachLongFilename(t *testing.T) {
	f := newIncidentFixture(t)
	ctx := context.Background()
	id := f.create(t, f.alice, "Road accident")

	att, err := f.media.Attach(ctx, id, "image", []byte("png"), strings.Repeat("a", 300)+".png")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(att.URL, ".png"))

	got, err := f.incidents.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
}
