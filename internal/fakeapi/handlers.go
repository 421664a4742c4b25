package fakeapi

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"vibeclient/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthRequired rejects requests without a valid bearer token.
func (s *Server) AuthRequired(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return respondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization header required"))
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return respondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid authorization header format"))
	}

	s.mu.RLock()
	secret := s.secret
	s.mu.RUnlock()

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return respondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired token"))
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return respondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid token structure - missing subject"))
	}

	s.mu.RLock()
	_, known := s.users[sub]
	s.mu.RUnlock()
	if !known {
		return respondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Unknown user"))
	}

	c.Locals("userID", sub)
	return c.Next()
}

// Register handles POST /auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.CreateUser(req)
	if err != nil {
		return respondWithError(c, fiber.StatusBadRequest, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.Envelope[models.User]{
		Success: true,
		Data:    user,
		Message: "User registered",
	})
}

// Login handles POST /auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, ok := s.authenticate(req.Email, req.Password)
	if !ok {
		return respondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError(models.MsgInvalidCredential))
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(models.AuthResponse{Token: token, User: user})
}

// GetPosts handles GET /posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	viewer := c.Locals("userID").(string)

	s.mu.RLock()
	feed := s.feedFor(viewer, "")
	s.mu.RUnlock()

	return c.JSON(models.Envelope[[]models.Post]{Success: true, Data: feed})
}

// CreatePost handles POST /posts with either a JSON or a multipart body.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var content, imageURL string
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		content = c.FormValue("content")
		if fh, err := c.FormFile("image"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return respondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Unreadable image"))
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return respondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Unreadable image"))
			}
			id := uuid.NewString()
			s.mu.Lock()
			s.images[id] = data
			s.mu.Unlock()
			imageURL = s.prefix + "/uploads/" + id
		}
	} else {
		var req models.CreatePostRequest
		if err := c.BodyParser(&req); err != nil {
			return respondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		content = req.Content
	}

	if strings.TrimSpace(content) == "" {
		return respondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content is required"))
	}

	post, err := s.CreatePostFor(userID, content, imageURL)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.Envelope[models.Post]{Success: true, Data: post})
}

// ToggleLike handles POST /posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	postID := c.Params("id")

	s.mu.Lock()
	rec, ok := s.postIdx[postID]
	if !ok {
		s.mu.Unlock()
		return respondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Post", postID))
	}
	if rec.likes[userID] {
		delete(rec.likes, userID)
	} else {
		rec.likes[userID] = true
	}
	liked, count := rec.likes[userID], len(rec.likes)
	s.mu.Unlock()

	return c.JSON(models.Envelope[models.LikeResult]{
		Success: true,
		Data:    models.LikeResult{Liked: &liked, LikeCount: &count},
	})
}

// GetOwnProfile handles GET /users/profile
func (s *Server) GetOwnProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	return s.respondProfile(c, userID, userID)
}

// GetUserProfile handles GET /users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	return s.respondProfile(c, c.Params("id"), c.Locals("userID").(string))
}

func (s *Server) respondProfile(c *fiber.Ctx, userID, viewerID string) error {
	s.mu.RLock()
	user, ok := s.profile(userID, viewerID)
	s.mu.RUnlock()
	if !ok {
		return respondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("User", userID))
	}
	return c.JSON(models.Envelope[models.User]{Success: true, Data: user})
}

// UpdateProfile handles PUT /users/profile. The response omits posts.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req models.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.applyProfileUpdate(userID, req)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return respondWithError(c, fiber.StatusBadRequest, appErr)
		}
		return respondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(models.Envelope[models.User]{Success: true, Data: user})
}

func (s *Server) applyProfileUpdate(userID string, req models.ProfileUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return models.User{}, models.NewNotFoundError("User", userID)
	}
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" {
			return models.User{}, models.NewValidationError("Username cannot be empty")
		}
		for id, other := range s.users {
			if id != userID && strings.EqualFold(other.user.Username, name) {
				return models.User{}, models.NewConflictError("Username already taken")
			}
		}
		rec.user.Username = name
	}
	if req.FullName != nil {
		rec.user.FullName = *req.FullName
	}
	if req.Bio != nil {
		rec.user.Bio = *req.Bio
	}
	if req.ProfileImage != nil {
		rec.user.ProfileImage = *req.ProfileImage
	}

	ref := authorRef(rec.user)
	for _, p := range s.posts {
		if p.post.Author.ID == userID {
			p.post.Author = ref
		}
	}
	return rec.user, nil
}

// GetUpload serves an image stored by CreatePost.
func (s *Server) GetUpload(c *fiber.Ctx) error {
	s.mu.RLock()
	data, ok := s.images[c.Params("id")]
	s.mu.RUnlock()
	if !ok {
		return respondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Upload", c.Params("id")))
	}
	c.Set(fiber.HeaderContentType, "application/octet-stream")
	return c.Send(data)
}
