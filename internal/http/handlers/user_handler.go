// User HTTP handlers.
//
//   - GET    /users
//   - GET    /users/{id}
//   - POST   /users
//   - PUT    /users/{id}
//   - DELETE /users/{id}
//   - POST   /users/{id}/friends/{friendId}
//   - DELETE /users/{id}/friends/{friendId}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// ListUsers godoc
// @ID          listUsers
// @Summary     List users
// @Description Returns every user with thoughts and friends resolved.
// @Tags        Users
// @Produce     json
// @Success     200  {array}   domain.PopulatedUser
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Description Returns one user with thoughts and friends resolved.
// @Tags        Users
// @Produce     json
// @Param       id   path      string  true  "User ID"  example(5f1e2d3c4b5a69788796a5b4)
// @Success     200  {object}  domain.PopulatedUser
// @Failure     404  {object}  handlers.ErrorResponse  "No user with this ID"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// CreateUser godoc
// @ID          createUser
// @Summary     Create a user
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body      domain.CreateUserInput  true  "New user"
// @Success     201   {object}  domain.User
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request or validation error"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	var in domain.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failBind(c, err)
		return
	}
	u, err := h.users.Create(c.Request.Context(), in)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Update a user
// @Description Applies the username and/or email present in the body.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       id    path      string            true  "User ID"
// @Param       body  body      domain.UserPatch  true  "Fields to change"
// @Success     200   {object}  domain.User
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request or validation error"
// @Failure     404   {object}  handlers.ErrorResponse  "No user with this ID"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id} [put]
func (h *Handlers) UpdateUser(c *gin.Context) {
	var p domain.UserPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		failBind(c, err)
		return
	}
	u, err := h.users.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete a user
// @Description Removes the user and returns it. Its thoughts are kept.
// @Tags        Users
// @Produce     json
// @Param       id   path      string  true  "User ID"
// @Success     200  {object}  domain.User
// @Failure     404  {object}  handlers.ErrorResponse  "No user with this ID"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	u, err := h.users.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// AddFriend godoc
// @ID          addFriend
// @Summary     Add a friend
// @Description Appends friendId to the user's friend list (no duplicates).
// @Tags        Friends
// @Produce     json
// @Param       id        path      string  true  "User ID"
// @Param       friendId  path      string  true  "Friend user ID"
// @Success     200       {object}  domain.PopulatedUser
// @Failure     400       {object}  handlers.ErrorResponse  "Self-friending"
// @Failure     404       {object}  handlers.ErrorResponse  "No user or friend with this ID"
// @Failure     500       {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/friends/{friendId} [post]
func (h *Handlers) AddFriend(c *gin.Context) {
	u, err := h.users.AddFriend(c.Request.Context(), c.Param("id"), c.Param("friendId"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// RemoveFriend godoc
// @ID          removeFriend
// @Summary     Remove a friend
// @Tags        Friends
// @Produce     json
// @Param       id        path      string  true  "User ID"
// @Param       friendId  path      string  true  "Friend user ID"
// @Success     200       {object}  domain.PopulatedUser
// @Failure     404       {object}  handlers.ErrorResponse  "No user with this ID"
// @Failure     500       {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/friends/{friendId} [delete]
func (h *Handlers) RemoveFriend(c *gin.Context) {
	u, err := h.users.RemoveFriend(c.Request.Context(), c.Param("id"), c.Param("friendId"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
