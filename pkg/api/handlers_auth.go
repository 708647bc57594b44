package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sparhub/sparrow/pkg/auth"
)

// handleToken implements the OAuth2 password flow: form-encoded
// username/password in, bearer token out.
func (s *Server) handleToken(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		s.abortValidation(c, errors.New("username and password are required"))
		return
	}

	token, err := s.auth.Login(username, password)
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// handleCreateUser registers a new account. Admin only.
func (s *Server) handleCreateUser(c *gin.Context) {
	var create auth.UserCreate
	if err := c.ShouldBindJSON(&create); err != nil {
		s.abortValidation(c, err)
		return
	}
	if create.Username == "" || create.Password == "" {
		s.abortValidation(c, errors.New("username and password are required"))
		return
	}

	user, err := s.auth.Store().Create(create)
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// handleCurrentUser returns the account behind the presented token.
func (s *Server) handleCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}
