package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"bizzy/internal/models"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodeDataURL(t *testing.T, dataURL string) (image.Image, string) {
	t.Helper()
	_, payload, ok := strings.Cut(dataURL, ",")
	require.True(t, ok)
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img, format
}

func TestAvatarPayloadSize(t *testing.T) {
	assert.Equal(t, 3, AvatarPayloadSize("data:image/png;base64,AAAA"))
	assert.Equal(t, 2, AvatarPayloadSize("data:image/png;base64,AAA="))
	assert.Equal(t, 1, AvatarPayloadSize("data:image/png;base64,QQ=="))
	assert.Equal(t, 0, AvatarPayloadSize("data:image/png;base64,"))
}

func TestNormalizeAvatar_Rejections(t *testing.T) {
	_, err := NormalizeAvatar("")
	assert.ErrorIs(t, err, ErrAvatarData)

	_, err = NormalizeAvatar("data:image/gif;base64,R0lGOD")
	assert.ErrorIs(t, err, ErrAvatarFormat)

	_, err = NormalizeAvatar("data:image/png;base64," + strings.Repeat("A", 7*1024*1024))
	assert.ErrorIs(t, err, ErrAvatarSize)

	_, err = NormalizeAvatar("data:image/png;base64,!!!not-base64")
	assert.ErrorIs(t, err, ErrAvatarData)

	_, err = NormalizeAvatar("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("not an image")))
	assert.ErrorIs(t, err, ErrAvatarData)
}

// pngHeaderDataURL builds a PNG whose IHDR claims w x h but carries no
// pixel data.
func pngHeaderDataURL(w, h int) string {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], uint32(w))
	binary.BigEndian.PutUint32(ihdr[4:], uint32(h))
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	chunk := append([]byte("IHDR"), ihdr...)
	buf := bytes.NewBuffer([]byte("\x89PNG\r\n\x1a\n"))
	_ = binary.Write(buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestNormalizeAvatar_RejectsOversizedDimensions(t *testing.T) {
	for _, dims := range [][2]int{{12000, 12000}, {9000, 10}, {10, 9000}, {7000, 7000}} {
		_, err := NormalizeAvatar(pngHeaderDataURL(dims[0], dims[1]))
		assert.ErrorIs(t, err, ErrAvatarData, dims)
	}
}

func TestNormalizeAvatar_HeaderOnlyPNGRejected(t *testing.T) {
	_, err := NormalizeAvatar(pngHeaderDataURL(64, 64))
	assert.ErrorIs(t, err, ErrAvatarData)
}

func TestNormalizeAvatar_SmallImageUnchanged(t *testing.T) {
	in := pngDataURL(t, 64, 32)
	out, err := NormalizeAvatar(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNormalizeAvatar_DownscalesLongEdge(t *testing.T) {
	out, err := NormalizeAvatar(pngDataURL(t, 1024, 600))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "data:image/png;base64,"))

	img, format := decodeDataURL(t, out)
	assert.Equal(t, "png", format)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestNormalizeAvatar_JPEGStaysJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 800))
	buf := bytes.NewBuffer(nil)
	require.NoError(t, jpeg.Encode(buf, src, nil))
	in := "data:image/jpg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	out, err := NormalizeAvatar(in)
	require.NoError(t, err)
	img, format := decodeDataURL(t, out)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())
}

func TestProfileService_Get(t *testing.T) {
	follows := newFollowRepoStub()
	follows.edges[[2]string{"viewer", "u1"}] = true
	follows.edges[[2]string{"u1", "x"}] = true
	users := &userRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.User, error) {
			if id != "u1" {
				return nil, models.NewNotFoundMessage("User not found")
			}
			return &models.User{ID: "u1", Name: "One", OnboardingCompleted: true, Interests: strPtr(`["zoo"]`)}, nil
		},
	}
	svc := NewProfileService(users, follows)
	ctx := context.Background()

	p, err := svc.Get(ctx, "viewer", "u1")
	require.NoError(t, err)
	assert.True(t, p.IsFollowing)
	assert.Equal(t, int64(1), p.FollowersCount)
	assert.Equal(t, int64(1), p.FollowingCount)
	assert.Equal(t, `["zoo"]`, *p.Interests)

	p, err = svc.Get(ctx, "", "u1")
	require.NoError(t, err)
	assert.False(t, p.IsFollowing)

	_, err = svc.Get(ctx, "viewer", "ghost")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestProfileService_CheckUsername(t *testing.T) {
	svc := NewProfileService(&userRepoStub{
		usernameExistsFn: func(_ context.Context, username, _ string) (bool, error) {
			return username == "taken", nil
		},
	}, newFollowRepoStub())
	ctx := context.Background()

	ok, err := svc.CheckUsername(ctx, "  Fresh ")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CheckUsername(ctx, "TAKEN")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.CheckUsername(ctx, "bad name")
	require.Error(t, err)
	assert.Equal(t, "Username can only contain letters and numbers", err.Error())

	_, err = svc.CheckUsername(ctx, "ab")
	require.Error(t, err)
	assert.Equal(t, "Username must be 3-20 characters", err.Error())
}

func TestProfileService_UpdateUsername(t *testing.T) {
	var stored string
	svc := NewProfileService(&userRepoStub{
		usernameExistsFn: func(_ context.Context, username, exclude string) (bool, error) {
			assert.Equal(t, "me", exclude)
			return username == "taken", nil
		},
		updateUsernameFn: func(_ context.Context, _, username string) error {
			stored = username
			return nil
		},
	}, newFollowRepoStub())
	ctx := context.Background()

	got, err := svc.UpdateUsername(ctx, "me", " NewName ")
	require.NoError(t, err)
	assert.Equal(t, "newname", got)
	assert.Equal(t, "newname", stored)

	_, err = svc.UpdateUsername(ctx, "me", "taken")
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	_, err = svc.UpdateUsername(ctx, "me", "x!")
	require.Error(t, err)
	assert.Equal(t, "Invalid username", err.Error())
}

func TestProfileService_UpdateName(t *testing.T) {
	svc := NewProfileService(&userRepoStub{}, newFollowRepoStub())
	ctx := context.Background()

	got, err := svc.UpdateName(ctx, "me", "  Ada  ")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got)

	_, err = svc.UpdateName(ctx, "me", "   ")
	require.Error(t, err)
	assert.Equal(t, "Invalid input", err.Error())

	_, err = svc.UpdateName(ctx, "me", strings.Repeat("n", 32))
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestProfileService_CompleteOnboarding(t *testing.T) {
	var stored string
	svc := NewProfileService(&userRepoStub{
		completeOnboardingFn: func(_ context.Context, _, interests string) error {
			stored = interests
			return nil
		},
	}, newFollowRepoStub())
	ctx := context.Background()

	require.NoError(t, svc.CompleteOnboarding(ctx, "me", json.RawMessage(`["park", "zoo"]`)))
	assert.Equal(t, `["park","zoo"]`, stored)

	require.NoError(t, svc.CompleteOnboarding(ctx, "me", json.RawMessage(`[]`)))
	assert.Equal(t, `[]`, stored)

	for _, bad := range []string{``, `null`, `"park"`, `{"a":1}`, `3`} {
		err := svc.CompleteOnboarding(ctx, "me", json.RawMessage(bad))
		assert.ErrorIs(t, err, ErrInvalidInterests, bad)
	}
}
