// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/Szuhaydv/mapex-backend/internal/maps"
)

// listResponse is the envelope for map lists.
type listResponse struct {
	Count int         `json:"count"`
	Data  []*maps.Map `json:"data"`
}

func newListResponse(list []*maps.Map) listResponse {
	if list == nil {
		list = []*maps.Map{}
	}
	return listResponse{Count: len(list), Data: list}
}

func (h *Handler) topThree(c *gin.Context) {
	list, err := h.maps.TopThree(c.Request.Context())
	if err != nil {
		h.mapError(c, "list top maps failed", err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(list))
}

func (h *Handler) explore(c *gin.Context) {
	list, err := h.maps.Explore(c.Request.Context())
	if err != nil {
		h.mapError(c, "list public maps failed", err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(list))
}

func (h *Handler) listMine(c *gin.Context) {
	list, err := h.maps.ListByAuthor(c.Request.Context(), Identity(c))
	if err != nil {
		h.mapError(c, "list own maps failed", err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(list))
}

func (h *Handler) createMap(c *gin.Context) {
	var in maps.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidBody})
		return
	}

	m, err := h.maps.Create(c.Request.Context(), Identity(c), in)
	if err != nil {
		h.mapError(c, "create map failed", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) getMap(c *gin.Context) {
	id, ok := h.mapID(c)
	if !ok {
		return
	}

	m, err := h.maps.Get(c.Request.Context(), Identity(c), id)
	if err != nil {
		h.mapError(c, "get map failed", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) updateMap(c *gin.Context) {
	var in maps.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidBody})
		return
	}
	// A missing title wins over an unknown id.
	if in.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgTitleRequired})
		return
	}
	id, ok := h.mapID(c)
	if !ok {
		return
	}

	if _, err := h.maps.Update(c.Request.Context(), Identity(c), id, in); err != nil {
		h.mapError(c, "update map failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": MsgMapUpdated})
}

func (h *Handler) deleteMap(c *gin.Context) {
	id, ok := h.mapID(c)
	if !ok {
		return
	}

	if err := h.maps.Delete(c.Request.Context(), Identity(c), id); err != nil {
		h.mapError(c, "delete map failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": MsgMapDeleted})
}

func (h *Handler) mapID(c *gin.Context) (ulid.ULID, bool) {
	id, err := maps.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": MsgMapNotFound})
		return ulid.ULID{}, false
	}
	return id, true
}

func (h *Handler) mapError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, maps.ErrTitleRequired):
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgTitleRequired})
	case errors.Is(err, maps.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidMap})
	case errors.Is(err, maps.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": MsgMapNotFound})
	default:
		h.abortError(c, "", msg, err)
	}
}
