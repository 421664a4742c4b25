package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope_Posts(t *testing.T) {
	posts, err := DecodeEnvelope[[]Post]([]byte(`{"success":true,"data":[{"id":"p1","content":"hi","likeCount":2,"liked":true}]}`))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
	assert.Equal(t, 2, posts[0].LikeCount)
	assert.True(t, posts[0].Liked)

	empty, err := DecodeEnvelope[[]Post]([]byte(`{"success":true,"data":[]}`))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestDecodeEnvelope_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"not json", `<html>`, CodeBadResponse},
		{"missing success", `{"data":[]}`, CodeBadResponse},
		{"missing data", `{"success":true}`, CodeBadResponse},
		{"null data", `{"success":true,"data":null}`, CodeBadResponse},
		{"object instead of array", `{"success":true,"data":{"id":"p1"}}`, CodeBadResponse},
		{"item without id", `{"success":true,"data":[{"content":"x"}]}`, CodeBadResponse},
		{"failure without message", `{"success":false}`, CodeBadResponse},
		{"failure with message", `{"success":false,"message":"Rate limited"}`, CodeServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEnvelope[[]Post]([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, IsCode(err, tt.wantCode), err.Error())
		})
	}

	_, err := DecodeEnvelope[[]Post]([]byte(`{"success":false,"error":"Slow down"}`))
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Slow down", appErr.Message)
}

func TestDecodeEnvelope_PostRequiresID(t *testing.T) {
	_, err := DecodeEnvelope[Post]([]byte(`{"success":true,"data":{"content":"hello"}}`))
	assert.True(t, IsCode(err, CodeBadResponse))

	_, err = DecodeEnvelope[LikeResult]([]byte(`{"success":true,"data":{}}`))
	assert.NoError(t, err)
}

func TestDecodeJSON_AuthResponse(t *testing.T) {
	got, err := DecodeJSON[AuthResponse]([]byte(`{"token":"abc","user":{"id":"u1","username":"alice"}}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Token)
	assert.Equal(t, "u1", got.User.ID)

	_, err = DecodeJSON[AuthResponse]([]byte(`{"user":{"id":"u1"}}`))
	assert.True(t, IsCode(err, CodeBadResponse))

	_, err = DecodeJSON[AuthResponse]([]byte(`{"token":"abc","user":{}}`))
	assert.True(t, IsCode(err, CodeBadResponse))
}

func TestWithLike(t *testing.T) {
	p := Post{ID: "p1", LikeCount: 4}

	liked := p.WithLike(true)
	assert.True(t, liked.Liked)
	assert.Equal(t, 5, liked.LikeCount)

	assert.Equal(t, p, liked.WithLike(false), "toggling twice restores the post")
	assert.Equal(t, liked, liked.WithLike(true), "setting the same flag changes nothing")

	zero := Post{ID: "p2", Liked: true}
	assert.Equal(t, 0, zero.WithLike(false).LikeCount)
}

func TestMergeUser(t *testing.T) {
	prev := User{
		ID: "u1", Username: "alice", FullName: "Alice", Bio: "old",
		Posts: []Post{{ID: "p1"}},
	}

	merged, err := MergeUser(prev, []byte(`{"id":"u1","bio":"new"}`))
	require.NoError(t, err)
	assert.Equal(t, "new", merged.Bio)
	assert.Equal(t, "alice", merged.Username)
	assert.Equal(t, "Alice", merged.FullName)
	assert.Equal(t, []Post{{ID: "p1"}}, merged.Posts)

	cleared, err := MergeUser(prev, []byte(`{"id":"u1","bio":"","fullName":""}`))
	require.NoError(t, err)
	assert.Empty(t, cleared.Bio)
	assert.Empty(t, cleared.FullName)
	assert.Equal(t, "alice", cleared.Username)

	replaced, err := MergeUser(prev, []byte(`{"id":"u1","posts":[]}`))
	require.NoError(t, err)
	assert.Empty(t, replaced.Posts)
	assert.NotNil(t, replaced.Posts)

	_, err = MergeUser(prev, []byte(`{"id":""}`))
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, CodeBadResponse, appErr.Code)

	assert.Equal(t, "old", prev.Bio, "prev is not modified")
}

func TestProfileUpdateEmpty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.Empty())
	bio := ""
	assert.False(t, ProfileUpdate{Bio: &bio}.Empty())
}

func TestAppError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := fmt.Errorf("fetch feed: %w", NewFormatError(cause))

	assert.True(t, IsCode(err, CodeBadResponse))
	assert.False(t, IsCode(err, CodeNoSession))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), MsgBadResponse)

	assert.Equal(t, MsgNoSession, NewSessionError().Error())
	assert.Equal(t, "Post with ID 7 not found", NewNotFoundError("Post", 7).Message)
	assert.False(t, IsCode(errors.New("plain"), CodeServerError))
}

func TestErrorResponseText(t *testing.T) {
	assert.Equal(t, "a", ErrorResponse{Message: "a", Error: "b"}.Text())
	assert.Equal(t, "b", ErrorResponse{Error: "b"}.Text())
	assert.Empty(t, ErrorResponse{}.Text())
}
