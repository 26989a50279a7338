// Package stubserver is an in-memory implementation of the CIAAN service
// API. It backs the test suite and local development; it keeps no durable
// state.
package stubserver

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"ciaan/config"
	"ciaan/models"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const sessionCookie = "token"

// Server serves the stub API over fiber.
type Server struct {
	cfg   *config.Config
	store *Store
	log   *slog.Logger
	app   *fiber.App
}

func New(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, store: NewStore(), log: logger}

	app := fiber.New(fiber.Config{
		AppName: "CIAAN Stub API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			s.log.Error("unhandled error", slog.String("error", err.Error()))
			return respondWithError(c, fiber.StatusInternalServerError, "Internal server error")
		},
	})
	app.Use(requestid.New())
	app.Use(s.structuredLogger())

	// own registry so multiple servers (one per test) never collide on
	// collector registration
	prom := fiberprometheus.NewWithRegistry(prometheus.NewRegistry(), "ciaan-stub", "http", "", nil)
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	app.Post("/user/register", s.Register)
	app.Post("/user/login", s.Login)

	protected := app.Group("", s.authRequired())
	protected.Get("/user/check", s.CheckSession)
	protected.Post("/user/logout", s.Logout)
	protected.Get("/post/feed", s.Feed)
	protected.Post("/post/create", s.CreatePost)
	protected.Post("/post/:id/like", s.ToggleLike)
	protected.Get("/post/:id/comments", s.GetComments)
	protected.Post("/post/:id/comment", s.AddComment)
	protected.Put("/post/:id", s.UpdatePost)
	protected.Delete("/post/:id", s.DeletePost)
	protected.Get("/users/profile/:userId", s.Profile)
	protected.Put("/users/profileupdate", s.UpdateProfile)

	s.app = app
	return s
}

// Store exposes the backing data store, mainly for test seeding.
func (s *Server) Store() *Store { return s.store }

// Listen serves on the configured port.
func (s *Server) Listen() error {
	return s.app.Listen(":" + s.cfg.Port)
}

// Serve serves on an existing listener; tests use a loopback listener on
// port 0.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func respondWithError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.ErrorResponse{Error: message})
}

// structuredLogger logs each request with slog after it is handled.
func (s *Server) structuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Duration("latency", time.Since(start)),
		}
		if rid := c.Locals("requestid"); rid != nil {
			fields = append(fields, slog.Any("request_id", rid))
		}
		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			s.log.Error("request failed", fields...)
		} else {
			s.log.Info("request processed", fields...)
		}
		return err
	}
}

// authRequired validates the session cookie and stores the user id in
// request locals.
func (s *Server) authRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(sessionCookie)
		if tokenString == "" {
			return respondWithError(c, fiber.StatusUnauthorized, "Authorization required")
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("invalid signing method")
			}
			return []byte(s.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return respondWithError(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return respondWithError(c, fiber.StatusUnauthorized, "Invalid token claims")
		}
		sub, ok := claims["sub"].(string)
		if !ok {
			return respondWithError(c, fiber.StatusUnauthorized, "Invalid subject claim")
		}
		if _, exists := s.store.UserByID(sub); !exists {
			return respondWithError(c, fiber.StatusUnauthorized, "Unknown user")
		}

		c.Locals("userID", sub)
		return c.Next()
	}
}

func (s *Server) generateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": "ciaan-api",
		"aud": "ciaan-client",
		"exp": now.Add(time.Hour * 24 * 7).Unix(),
		"iat": now.Unix(),
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Expires:  time.Now().Add(time.Hour * 24 * 7),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func (s *Server) currentUser(c *fiber.Ctx) (models.User, bool) {
	id, ok := c.Locals("userID").(string)
	if !ok {
		return models.User{}, false
	}
	return s.store.UserByID(id)
}

// Register handles POST /user/register.
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		EmailID   string `json:"emailId"`
		Password  string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.FirstName == "" || req.EmailID == "" || req.Password == "" {
		return respondWithError(c, fiber.StatusBadRequest, "First name, email, and password are required")
	}

	user, ok := s.store.CreateUser(req.FirstName, req.LastName, req.EmailID, req.Password)
	if !ok {
		return respondWithError(c, fiber.StatusConflict, "User already exists")
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	s.setSessionCookie(c, token)
	return c.Status(fiber.StatusCreated).JSON(models.UserResponse{User: user})
}

// Login handles POST /user/login.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		EmailID  string `json:"emailId"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, ok := s.store.Authenticate(req.EmailID, req.Password)
	if !ok {
		return respondWithError(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	s.setSessionCookie(c, token)
	return c.JSON(models.UserResponse{User: user})
}

// Logout handles POST /user/logout.
func (s *Server) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// CheckSession handles GET /user/check.
func (s *Server) CheckSession(c *fiber.Ctx) error {
	user, ok := s.currentUser(c)
	if !ok {
		return respondWithError(c, fiber.StatusUnauthorized, "Authorization required")
	}
	return c.JSON(models.UserResponse{User: user})
}

// Feed handles GET /post/feed?page&limit.
func (s *Server) Feed(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 5)
	if page < 1 || limit < 1 {
		return respondWithError(c, fiber.StatusBadRequest, "Invalid pagination parameters")
	}

	posts, pagination := s.store.FeedPage(page, limit)
	return c.JSON(models.FeedResponse{Posts: posts, Pagination: pagination})
}

// CreatePost handles POST /post/create.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	user, _ := s.currentUser(c)

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return respondWithError(c, fiber.StatusBadRequest, "Title and content are required")
	}

	post := s.store.CreatePost(user, strings.TrimSpace(req.Title), strings.TrimSpace(req.Content))
	return c.Status(fiber.StatusCreated).JSON(models.PostResponse{Post: post})
}

// ToggleLike handles POST /post/:id/like.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)
	likeCount, isLiked, ok := s.store.ToggleLike(c.Params("id"), userID)
	if !ok {
		return respondWithError(c, fiber.StatusNotFound, "Post not found")
	}
	return c.JSON(models.LikeResponse{LikeCount: likeCount, IsLiked: isLiked})
}

// GetComments handles GET /post/:id/comments.
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments, ok := s.store.Comments(c.Params("id"))
	if !ok {
		return respondWithError(c, fiber.StatusNotFound, "Post not found")
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return c.JSON(models.CommentsResponse{Comments: comments})
}

// AddComment handles POST /post/:id/comment.
func (s *Server) AddComment(c *fiber.Ctx) error {
	user, _ := s.currentUser(c)

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return respondWithError(c, fiber.StatusBadRequest, "Comment content is required")
	}

	comment, ok := s.store.AddComment(c.Params("id"), user, strings.TrimSpace(req.Content))
	if !ok {
		return respondWithError(c, fiber.StatusNotFound, "Post not found")
	}
	return c.Status(fiber.StatusCreated).JSON(models.CommentResponse{Comment: comment})
}

// UpdatePost handles PUT /post/:id.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	post, exists := s.store.PostByID(c.Params("id"))
	if !exists {
		return respondWithError(c, fiber.StatusNotFound, "Post not found")
	}
	if post.Author.ID != userID {
		return respondWithError(c, fiber.StatusForbidden, "You can only edit your own posts")
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return respondWithError(c, fiber.StatusBadRequest, "Title and content are required")
	}

	updated, _ := s.store.UpdatePost(post.ID, strings.TrimSpace(req.Title), strings.TrimSpace(req.Content))
	return c.JSON(models.PostResponse{Post: updated})
}

// DeletePost handles DELETE /post/:id.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	post, exists := s.store.PostByID(c.Params("id"))
	if !exists {
		return respondWithError(c, fiber.StatusNotFound, "Post not found")
	}
	if post.Author.ID != userID {
		return respondWithError(c, fiber.StatusForbidden, "You can only delete your own posts")
	}

	s.store.DeletePost(post.ID)
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// Profile handles GET /users/profile/:userId.
func (s *Server) Profile(c *fiber.Ctx) error {
	user, ok := s.store.UserByID(c.Params("userId"))
	if !ok {
		return respondWithError(c, fiber.StatusNotFound, "User not found")
	}
	posts := s.store.PostsByAuthor(user.ID)
	if posts == nil {
		posts = []models.Post{}
	}
	return c.JSON(models.ProfileResponse{User: user, Posts: posts})
}

// UpdateProfile handles PUT /users/profileupdate.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var req struct {
		Bio string `json:"bio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, ok := s.store.UpdateBio(userID, req.Bio)
	if !ok {
		return respondWithError(c, fiber.StatusNotFound, "User not found")
	}
	return c.JSON(models.UserResponse{User: user})
}
