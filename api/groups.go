package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pennmobile/gsr-booking/internal/domain"
	"github.com/pennmobile/gsr-booking/internal/service/groups"
)

type GroupHandler struct {
	service groups.GroupUseCase
}

func NewGroupHandler(service groups.GroupUseCase) *GroupHandler {
	return &GroupHandler{service: service}
}

func (h *GroupHandler) Register(router *gin.RouterGroup) {
	router.GET("/groups", h.list)
	router.POST("/groups", h.create)
	router.GET("/groups/:id/invites", h.invites)
	router.POST("/groups/:id/invite", h.invite)
	router.POST("/memberships/:id/accept", h.accept)
	router.POST("/memberships/:id/decline", h.decline)
}

func (h *GroupHandler) list(c *gin.Context) {
	list, err := h.service.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": list})
}

type createGroupRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

func (h *GroupHandler) create(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.service.Create(c.Request.Context(), currentUser(c), req.Name, req.Color)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (h *GroupHandler) invites(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	invites, err := h.service.Invites(c.Request.Context(), groupID, currentUser(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

type inviteRequest struct {
	User string `json:"user" binding:"required"`
	Type string `json:"type"`
}

func (h *GroupHandler) invite(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	membership, err := h.service.Invite(c.Request.Context(), groupID, currentUser(c), req.User, domain.MembershipType(req.Type))
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invite exists or user already member"})
			return
		}
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invite sent", "membership": membership})
}

func (h *GroupHandler) accept(c *gin.Context) {
	membershipID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid membership id"})
		return
	}

	membership, err := h.service.Accept(c.Request.Context(), membershipID, currentUser(c))
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invite has already been accepted"})
			return
		}
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "group joined", "user": membership.Username, "group": membership.GroupID})
}

func (h *GroupHandler) decline(c *gin.Context) {
	membershipID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid membership id"})
		return
	}

	if err := h.service.Decline(c.Request.Context(), membershipID, currentUser(c)); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "cannot decline an invite that has been accepted"})
			return
		}
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invite declined"})
}

func (h *GroupHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
