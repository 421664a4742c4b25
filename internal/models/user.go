// Package models contains the records exchanged with the social API and the
// client-side state built from them.
package models

import (
	"encoding/json"
	"fmt"
)

// User is the identity summary returned by the auth and profile endpoints.
// Posts is only populated when a full profile is viewed.
type User struct {
	ID           string `json:"id" validate:"required"`
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage"`
	Posts        []Post `json:"posts,omitempty"`
}

// AuthResponse is the body of a successful sign-in.
type AuthResponse struct {
	Token string `json:"token" validate:"required"`
	User  User   `json:"user"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required"`
}

// ProfileUpdate carries the fields a user may change on their own profile.
// Nil fields are left out of the request.
type ProfileUpdate struct {
	Username     *string `json:"username,omitempty"`
	FullName     *string `json:"fullName,omitempty"`
	Bio          *string `json:"bio,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

// Empty reports whether no field is set.
func (u ProfileUpdate) Empty() bool {
	return u.Username == nil && u.FullName == nil && u.Bio == nil && u.ProfileImage == nil
}

// MergeUser decodes data, a user object sent by the server, over prev. Keys
// present in data replace prev's values, empty strings included; keys it
// leaves out keep them. Posts missing from data, or null, keep prev's posts.
func MergeUser(prev User, data json.RawMessage) (User, error) {
	out := prev
	out.Posts = nil
	if err := json.Unmarshal(data, &out); err != nil {
		return prev, NewFormatError(fmt.Errorf("decode user: %w", err))
	}
	if err := Validate(out); err != nil {
		return prev, NewFormatError(err)
	}
	if out.Posts == nil {
		out.Posts = prev.Posts
	}
	return out, nil
}
