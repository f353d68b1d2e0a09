package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"quill/internal/config"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/service"
	"quill/internal/session"
	"quill/views"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "test-secret-key"

// mockPostRepo mocks repository.PostRepository
type mockPostRepo struct {
	mock.Mock
}

func (m *mockPostRepo) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *mockPostRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *mockPostRepo) List(ctx context.Context, limit int) ([]*models.Post, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *mockPostRepo) Update(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *mockPostRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockCommentRepo mocks repository.CommentRepository
type mockCommentRepo struct {
	mock.Mock
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockCommentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *mockCommentRepo) ListForPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Comment), args.Error(1)
}

func (m *mockCommentRepo) Update(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockCommentRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockViewRepo mocks repository.ViewRepository
type mockViewRepo struct {
	mock.Mock
}

func (m *mockViewRepo) Record(ctx context.Context, postID, userID string) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

func (m *mockViewRepo) CountForPost(ctx context.Context, postID string) (int64, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(int64), args.Error(1)
}

// mockAuth mocks the authClient surface of the backend.
type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) SignUp(ctx context.Context, email, password, displayName string) error {
	args := m.Called(ctx, email, password, displayName)
	return args.Error(0)
}

func (m *mockAuth) SignInWithPassword(ctx context.Context, email, password string) (models.TokenPair, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(models.TokenPair), args.Error(1)
}

func (m *mockAuth) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *mockAuth) ResolveIdentity(ctx context.Context, pair models.TokenPair) (*models.User, *models.TokenPair, error) {
	args := m.Called(ctx, pair)
	var user *models.User
	if args.Get(0) != nil {
		user = args.Get(0).(*models.User)
	}
	var refreshed *models.TokenPair
	if args.Get(1) != nil {
		refreshed = args.Get(1).(*models.TokenPair)
	}
	return user, refreshed, args.Error(2)
}

// mockImages mocks the imageStore surface.
type mockImages struct {
	mock.Mock
}

func (m *mockImages) Attach(ctx context.Context, in service.AttachImageInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *mockImages) Remove(ctx context.Context, imageURL string) error {
	args := m.Called(ctx, imageURL)
	return args.Error(0)
}

type testMocks struct {
	posts    *mockPostRepo
	comments *mockCommentRepo
	views    *mockViewRepo
	auth     *mockAuth
	images   *mockImages
}

// newTestServer builds a Server over mocks and a fiber app with the real
// middleware chain (minus metrics, which cannot register twice per process).
func newTestServer(t *testing.T) (*fiber.App, *testMocks) {
	t.Helper()

	mocks := &testMocks{
		posts:    new(mockPostRepo),
		comments: new(mockCommentRepo),
		views:    new(mockViewRepo),
		auth:     new(mockAuth),
		images:   new(mockImages),
	}

	s := &Server{
		config: &config.Config{
			Port:          "8000",
			Env:           "test",
			SessionSecret: testSessionSecret,
		},
		sessions:    session.NewManager(testSessionSecret, false),
		auth:        mocks.auth,
		images:      mocks.images,
		postRepo:    mocks.posts,
		commentRepo: mocks.comments,
		viewRepo:    mocks.views,
	}

	app := fiber.New(fiber.Config{Views: views.Engine()})
	app.Use(middleware.ContextMiddleware())
	app.Use(s.ResolveCurrentUser())
	s.SetupRoutes(app)

	return app, mocks
}

// sessionCookie signs a session cookie the way session.Manager.Issue does.
func sessionCookie(t *testing.T, pair models.TokenPair) *http.Cookie {
	t.Helper()

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": "quill",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
		"at":  pair.AccessToken,
		"rt":  pair.RefreshToken,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(testSessionSecret))
	require.NoError(t, err)

	return &http.Cookie{Name: session.CookieName, Value: signed}
}

// testPair is the token pair used by authenticated test requests.
var testPair = models.TokenPair{AccessToken: "access-token", RefreshToken: "refresh-token"}

// expectIdentity wires the auth mock so testPair resolves to the given user.
func expectIdentity(m *testMocks, user *models.User) {
	m.auth.On("ResolveIdentity", mock.Anything, testPair).Return(user, nil, nil)
}
