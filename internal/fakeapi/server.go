// Package fakeapi is an in-memory implementation of the social API contract
// the client consumes. It backs the package tests and the fakeapi command.
package fakeapi

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"vibeclient/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Options configure a Server.
type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	// Prefix is the mount point of the API, "/api" when empty.
	Prefix string
}

type userRecord struct {
	user     models.User
	password []byte
}

type postRecord struct {
	post  models.Post
	likes map[string]bool
}

// Server holds users and posts in memory. It is safe for concurrent use.
type Server struct {
	mu      sync.RWMutex
	secret  []byte
	ttl     time.Duration
	prefix  string
	users   map[string]*userRecord
	byEmail map[string]string
	posts   []*postRecord
	postIdx map[string]*postRecord
	images  map[string][]byte
	now     func() time.Time
}

// New creates an empty server.
func New(opts Options) *Server {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Prefix == "" {
		opts.Prefix = "/api"
	}
	return &Server{
		secret:  []byte(opts.JWTSecret),
		ttl:     opts.TokenTTL,
		prefix:  opts.Prefix,
		users:   make(map[string]*userRecord),
		byEmail: make(map[string]string),
		postIdx: make(map[string]*postRecord),
		images:  make(map[string][]byte),
		now:     time.Now,
	}
}

// App builds a fiber application serving the API under the prefix.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "vibeclient fake API",
		BodyLimit:             10 * 1024 * 1024,
		DisableStartupMessage: true,
	})
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware installs the middleware the standalone server runs with.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Header: "X-Correlation-ID"}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
	}))
}

// SetupRoutes registers the API handlers on app.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group(s.prefix)

	auth := api.Group("/auth")
	auth.Post("/register", s.Register)
	auth.Post("/login", s.Login)

	posts := api.Group("/posts", s.AuthRequired)
	posts.Get("/", s.GetPosts)
	posts.Post("/", s.CreatePost)
	posts.Post("/:id/like", s.ToggleLike)

	users := api.Group("/users", s.AuthRequired)
	users.Get("/profile", s.GetOwnProfile)
	users.Put("/profile", s.UpdateProfile)
	users.Get("/:id", s.GetUserProfile)

	api.Get("/uploads/:id", s.GetUpload)
}

// RotateSecret invalidates every token issued so far.
func (s *Server) RotateSecret(secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = []byte(secret)
}

// CreateUser registers a user directly, bypassing HTTP.
func (s *Server) CreateUser(req models.RegisterRequest) (models.User, error) {
	if err := models.Validate(req); err != nil {
		return models.User{}, models.NewValidationError(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return models.User{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return models.User{}, models.NewConflictError("Email already registered")
	}
	for _, u := range s.users {
		if strings.EqualFold(u.user.Username, req.Username) {
			return models.User{}, models.NewConflictError("Username already taken")
		}
	}

	user := models.User{
		ID:       uuid.NewString(),
		Username: req.Username,
		FullName: req.FullName,
		Email:    email,
	}
	s.users[user.ID] = &userRecord{user: user, password: hash}
	s.byEmail[email] = user.ID
	return user, nil
}

// CreatePostFor adds a post authored by userID, bypassing HTTP.
func (s *Server) CreatePostFor(userID, content, imageURL string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.users[userID]
	if !ok {
		return models.Post{}, models.NewNotFoundError("User", userID)
	}
	rec := &postRecord{
		post: models.Post{
			ID:        uuid.NewString(),
			Content:   content,
			ImageURL:  imageURL,
			CreatedAt: s.now().UTC(),
			Author:    authorRef(author.user),
		},
		likes: make(map[string]bool),
	}
	s.posts = append(s.posts, rec)
	s.postIdx[rec.post.ID] = rec
	return rec.post, nil
}

// IssueToken signs a token for userID.
func (s *Server) IssueToken(userID string) (string, error) {
	s.mu.RLock()
	secret := s.secret
	s.mu.RUnlock()

	if len(secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}
	now := s.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": "vibeclient-fakeapi",
		"exp": now.Add(s.ttl).Unix(),
		"iat": now.Unix(),
		"jti": uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *Server) authenticate(email, password string) (models.User, bool) {
	s.mu.RLock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	var rec *userRecord
	if ok {
		rec = s.users[id]
	}
	s.mu.RUnlock()

	if rec == nil {
		return models.User{}, false
	}
	if bcrypt.CompareHashAndPassword(rec.password, []byte(password)) != nil {
		return models.User{}, false
	}
	return rec.user, true
}

// feedFor returns all posts newest first, with Liked computed for viewerID.
// Must be called with s.mu held.
func (s *Server) feedFor(viewerID string, authorID string) []models.Post {
	out := make([]models.Post, 0, len(s.posts))
	for i := len(s.posts) - 1; i >= 0; i-- {
		rec := s.posts[i]
		if authorID != "" && rec.post.Author.ID != authorID {
			continue
		}
		out = append(out, rec.view(viewerID))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// profile returns the user with their posts. Must be called with s.mu held.
func (s *Server) profile(userID, viewerID string) (models.User, bool) {
	rec, ok := s.users[userID]
	if !ok {
		return models.User{}, false
	}
	u := rec.user
	u.Posts = s.feedFor(viewerID, userID)
	return u, true
}

func (r *postRecord) view(viewerID string) models.Post {
	p := r.post
	p.LikeCount = len(r.likes)
	p.Liked = r.likes[viewerID]
	return p
}

func authorRef(u models.User) models.AuthorRef {
	return models.AuthorRef{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		ProfileImage: u.ProfileImage,
	}
}
