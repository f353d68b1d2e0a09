package server

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	post := &models.Post{ID: "p1", Title: "Hello", UserID: "user-2"}

	tests := []struct {
		name           string
		form           url.Values
		authed         bool
		postErr        error
		expectedStatus int
		expectCreate   bool
	}{
		{
			name:           "valid comment redirects back to the post",
			form:           url.Values{"content": {"Nice one"}},
			authed:         true,
			expectedStatus: fiber.StatusSeeOther,
			expectCreate:   true,
		},
		{
			name:           "empty content rejected",
			form:           url.Values{},
			authed:         true,
			expectedStatus: fiber.StatusBadRequest,
		},
		{
			name:           "unauthenticated",
			form:           url.Values{"content": {"Nice one"}},
			expectedStatus: fiber.StatusUnauthorized,
		},
		{
			name:           "commenting on a missing post is a 404",
			form:           url.Values{"content": {"Nice one"}},
			authed:         true,
			postErr:        models.NewNotFoundError("post", "p1"),
			expectedStatus: fiber.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, mocks := newTestServer(t)
			if tt.authed {
				expectIdentity(mocks, testUser)
			}
			if tt.postErr != nil {
				mocks.posts.On("GetByID", mock.Anything, "p1").Return(nil, tt.postErr)
			} else {
				mocks.posts.On("GetByID", mock.Anything, "p1").Return(post, nil).Maybe()
			}
			mocks.comments.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

			req := httptest.NewRequest("POST", "/blog/posts/p1/comments",
				strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.authed {
				req.AddCookie(sessionCookie(t, testPair))
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectCreate {
				assert.Equal(t, "/blog/posts/p1", resp.Header.Get("Location"))
				mocks.comments.AssertCalled(t, "Create", mock.Anything,
					mock.MatchedBy(func(cm *models.Comment) bool {
						return cm.PostID == "p1" &&
							cm.UserID == testUser.ID &&
							cm.Content == "Nice one"
					}))
			} else {
				mocks.comments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestUpdateComment(t *testing.T) {
	tests := []struct {
		name           string
		ownerID        string
		expectedStatus int
		expectUpdate   bool
	}{
		{
			name:           "owner can edit",
			ownerID:        testUser.ID,
			expectedStatus: fiber.StatusSeeOther,
			expectUpdate:   true,
		},
		{
			name:           "non-owner forbidden",
			ownerID:        "someone-else",
			expectedStatus: fiber.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, mocks := newTestServer(t)
			expectIdentity(mocks, testUser)
			mocks.comments.On("GetByID", mock.Anything, "c1").
				Return(&models.Comment{ID: "c1", PostID: "p1", UserID: tt.ownerID, Content: "Old"}, nil)
			mocks.comments.On("Update", mock.Anything, mock.Anything).Return(nil).Maybe()

			form := url.Values{"content": {"Edited"}}
			req := httptest.NewRequest("POST", "/comments/c1", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.AddCookie(sessionCookie(t, testPair))

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectUpdate {
				mocks.comments.AssertCalled(t, "Update", mock.Anything,
					mock.MatchedBy(func(cm *models.Comment) bool {
						return cm.ID == "c1" && cm.Content == "Edited"
					}))
			} else {
				mocks.comments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDeleteComment(t *testing.T) {
	tests := []struct {
		name           string
		ownerID        string
		getErr         error
		expectedStatus int
		expectDelete   bool
	}{
		{
			name:           "owner can delete",
			ownerID:        testUser.ID,
			expectedStatus: fiber.StatusSeeOther,
			expectDelete:   true,
		},
		{
			name:           "non-owner forbidden",
			ownerID:        "someone-else",
			expectedStatus: fiber.StatusForbidden,
		},
		{
			name:           "missing comment",
			getErr:         models.NewNotFoundError("comment", "c1"),
			expectedStatus: fiber.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, mocks := newTestServer(t)
			expectIdentity(mocks, testUser)
			if tt.getErr != nil {
				mocks.comments.On("GetByID", mock.Anything, "c1").Return(nil, tt.getErr)
			} else {
				mocks.comments.On("GetByID", mock.Anything, "c1").
					Return(&models.Comment{ID: "c1", PostID: "p1", UserID: tt.ownerID}, nil)
			}
			mocks.comments.On("Delete", mock.Anything, "c1").Return(nil).Maybe()

			req := httptest.NewRequest("POST", "/comments/c1/delete", nil)
			req.AddCookie(sessionCookie(t, testPair))

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectDelete {
				mocks.comments.AssertCalled(t, "Delete", mock.Anything, "c1")
			} else {
				mocks.comments.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}
		})
	}
}
