// Thought and reaction HTTP handlers.
//
//   - GET    /thoughts
//   - GET    /thoughts/{id}
//   - POST   /thoughts
//   - PUT    /thoughts/{id}
//   - DELETE /thoughts/{id}
//   - POST   /thoughts/{id}/reactions
//   - DELETE /thoughts/{id}/reactions/{reactionId}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/services"
)

// HeaderPartialFailure is set on POST /thoughts when the thought was stored
// but could not be linked to its author. Its value is the failed step.
const HeaderPartialFailure = "X-Partial-Failure"

// ListThoughts godoc
// @ID          listThoughts
// @Summary     List thoughts
// @Tags        Thoughts
// @Produce     json
// @Success     200  {array}   domain.Thought
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts [get]
func (h *Handlers) ListThoughts(c *gin.Context) {
	ts, err := h.thoughts.List(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, ts)
}

// GetThought godoc
// @ID          getThought
// @Summary     Get a thought
// @Tags        Thoughts
// @Produce     json
// @Param       id   path      string  true  "Thought ID"
// @Success     200  {object}  domain.Thought
// @Failure     404  {object}  handlers.ErrorResponse  "No thought with this ID"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts/{id} [get]
func (h *Handlers) GetThought(c *gin.Context) {
	t, err := h.thoughts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// CreateThought godoc
// @ID          createThought
// @Summary     Create a thought
// @Description Stores the thought, then appends its id to the author's
// @Description thought list. If that second step fails the thought is still
// @Description returned with 201 and the X-Partial-Failure header.
// @Tags        Thoughts
// @Accept      json
// @Produce     json
// @Param       body  body      domain.CreateThoughtInput  true  "New thought"
// @Success     201   {object}  domain.Thought
// @Header      201   {string}  X-Partial-Failure  "Failed follow-up step (link-user)"
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request or validation error"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts [post]
func (h *Handlers) CreateThought(c *gin.Context) {
	var in domain.CreateThoughtInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failBind(c, err)
		return
	}
	t, err := h.thoughts.Create(c.Request.Context(), in)
	var pf *services.PartialFailureError
	switch {
	case err == nil:
	case errors.As(err, &pf) && t != nil:
		c.Header(HeaderPartialFailure, pf.Step)
	default:
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, t)
}

// UpdateThought godoc
// @ID          updateThought
// @Summary     Update a thought
// @Tags        Thoughts
// @Accept      json
// @Produce     json
// @Param       id    path      string               true  "Thought ID"
// @Param       body  body      domain.ThoughtPatch  true  "Fields to change"
// @Success     200   {object}  domain.Thought
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request or validation error"
// @Failure     404   {object}  handlers.ErrorResponse  "No thought with this ID"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts/{id} [put]
func (h *Handlers) UpdateThought(c *gin.Context) {
	var p domain.ThoughtPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		failBind(c, err)
		return
	}
	t, err := h.thoughts.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// DeleteThought godoc
// @ID          deleteThought
// @Summary     Delete a thought
// @Tags        Thoughts
// @Produce     json
// @Param       id   path      string  true  "Thought ID"
// @Success     200  {object}  domain.Thought
// @Failure     404  {object}  handlers.ErrorResponse  "No thought with this ID"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts/{id} [delete]
func (h *Handlers) DeleteThought(c *gin.Context) {
	t, err := h.thoughts.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// AddReaction godoc
// @ID          addReaction
// @Summary     Add a reaction
// @Description Appends a reaction and returns the whole thought.
// @Tags        Reactions
// @Accept      json
// @Produce     json
// @Param       id    path      string                true  "Thought ID"
// @Param       body  body      domain.ReactionInput  true  "Reaction"
// @Success     200   {object}  domain.Thought
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request or validation error"
// @Failure     404   {object}  handlers.ErrorResponse  "No thought with this ID"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts/{id}/reactions [post]
func (h *Handlers) AddReaction(c *gin.Context) {
	var in domain.ReactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failBind(c, err)
		return
	}
	t, err := h.thoughts.AddReaction(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// RemoveReaction godoc
// @ID          removeReaction
// @Summary     Remove a reaction
// @Description Pulls the reaction by reactionId; unknown ids are a no-op.
// @Tags        Reactions
// @Produce     json
// @Param       id          path      string  true  "Thought ID"
// @Param       reactionId  path      string  true  "Reaction ID"
// @Success     200         {object}  domain.Thought
// @Failure     404         {object}  handlers.ErrorResponse  "No thought with this ID"
// @Failure     500         {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoughts/{id}/reactions/{reactionId} [delete]
func (h *Handlers) RemoveReaction(c *gin.Context) {
	t, err := h.thoughts.RemoveReaction(c.Request.Context(), c.Param("id"), c.Param("reactionId"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}
