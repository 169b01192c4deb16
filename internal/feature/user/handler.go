package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	resp "go-user-service/internal/transport/http/response"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// POST /users
func (h *Handler) Create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.bindErr(c, err)
		return
	}
	u, err := h.svc.CreateUser(c.Request.Context(), in)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp.OK("user created", u))
}

// GET /users
func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.bindErr(c, err)
		return
	}
	page, err := h.svc.ListUsers(c.Request.Context(), q)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("", page))
}

// GET /users/:id
func (h *Handler) Get(c *gin.Context) {
	u, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("", u))
}

// PUT /users/:id
func (h *Handler) Update(c *gin.Context) {
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.bindErr(c, err)
		return
	}
	u, err := h.svc.UpdateUser(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("user updated", u))
}

// POST /users/:id/activate
func (h *Handler) Activate(c *gin.Context) {
	u, err := h.svc.ActivateUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("user activated", u))
}

// POST /users/:id/deactivate
func (h *Handler) Deactivate(c *gin.Context) {
	u, err := h.svc.DeactivateUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK("user deactivated", u))
}

// DELETE /users/:id（默认软删；?permanent=true 硬删）
func (h *Handler) Delete(c *gin.Context) {
	permanent := c.Query("permanent") == "true"
	if err := h.svc.DeleteUser(c.Request.Context(), c.Param("id"), permanent); err != nil {
		h.writeErr(c, err)
		return
	}
	msg := "user deleted"
	if permanent {
		msg = "user permanently deleted"
	}
	c.JSON(http.StatusOK, resp.OK(msg, gin.H{"id": c.Param("id")}))
}

func (h *Handler) bindErr(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]resp.FieldError, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, resp.FieldError{Field: fe.Field(), Message: fe.Tag()})
		}
		c.JSON(http.StatusBadRequest, resp.FailFields("invalid request", fields))
		return
	}
	c.JSON(http.StatusBadRequest, resp.Fail("invalid request", err.Error()))
}

// writeErr 领域错误 → HTTP 状态；其余一律 500，细节只进日志
func (h *Handler) writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, resp.Fail("user not found", err.Error()))
	case errors.Is(err, ErrEmailConflict):
		c.JSON(http.StatusConflict, resp.Fail("email already in use", err.Error()))
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, resp.Fail("invalid credentials", err.Error()))
	case errors.Is(err, ErrInactive):
		c.JSON(http.StatusForbidden, resp.Fail("user is deactivated", err.Error()))
	default:
		h.log.Error("user op failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, resp.Fail("internal error", "database error"))
	}
}
