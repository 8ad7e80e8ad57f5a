package media

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHead = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestValidate_DeclaredType(t *testing.T) {
	v := NewValidator(0)
	tests := []struct {
		name     string
		declared string
		want     Type
	}{
		{"round1.jpg", "image/jpeg", TypeImage},
		{"round1.mp4", "video/mp4", TypeVideo},
		{"clip", "video/webm; codecs=vp9", TypeVideo},
	}
	for _, tc := range tests {
		info, err := v.Validate(tc.name, tc.declared, nil, 1024)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, info.Type, tc.name)
	}
}

func TestValidate_FallsBackToSniffing(t *testing.T) {
	v := NewValidator(0)
	info, err := v.Validate("upload", "application/octet-stream", pngHead, int64(len(pngHead)))
	require.NoError(t, err)
	assert.Equal(t, TypeImage, info.Type)
	assert.Equal(t, "image/png", info.ContentType)
}

func TestValidate_FallsBackToExtension(t *testing.T) {
	v := NewValidator(0)
	info, err := v.Validate("arena.PNG", "", []byte("not really a png"), 16)
	require.NoError(t, err)
	assert.Equal(t, TypeImage, info.Type)
}

func TestValidate_Rejects(t *testing.T) {
	v := NewValidator(10)

	_, err := v.Validate("a.jpg", "image/jpeg", nil, 0)
	assert.True(t, errors.Is(err, ErrEmpty))

	_, err = v.Validate("a.jpg", "image/jpeg", nil, 11)
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, err = v.Validate("notes.txt", "text/plain", []byte("hello"), 5)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestNewValidator_DefaultMax(t *testing.T) {
	assert.Equal(t, DefaultMaxSize, NewValidator(-1).MaxSize)
}

func TestTypeFromName(t *testing.T) {
	typ, ok := TypeFromName("round3.MP4")
	assert.True(t, ok)
	assert.Equal(t, TypeVideo, typ)

	_, ok = TypeFromName("README")
	assert.False(t, ok)
}
