package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"line-monitor-backend/internal/apperr"
	"line-monitor-backend/internal/model"
	"line-monitor-backend/internal/store"
)

type createCauseRequest struct {
	Code        string  `json:"code" binding:"required,max=32"`
	Name        string  `json:"name" binding:"required,max=128"`
	Category    string  `json:"category" binding:"required,max=64"`
	Description *string `json:"description" binding:"omitempty,max=255"`
	AffectTRS   *bool   `json:"affectTRS"`
	IsActive    *bool   `json:"isActive"`
}

// CreateCause handles POST /api/causes.
func (h *Handler) CreateCause(c *gin.Context) {
	var req createCauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validationf("%v", err))
		return
	}

	cause := model.Cause{
		ID:        uuid.NewString(),
		Code:      strings.TrimSpace(req.Code),
		Name:      strings.TrimSpace(req.Name),
		Category:  strings.TrimSpace(req.Category),
		AffectTRS: true,
		IsActive:  true,
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if desc != "" {
			cause.Description = &desc
		}
	}
	if req.AffectTRS != nil {
		cause.AffectTRS = *req.AffectTRS
	}
	if req.IsActive != nil {
		cause.IsActive = *req.IsActive
	}

	if cause.Code == "" {
		respondError(c, apperr.Validationf("code must not be blank"))
		return
	}

	if err := h.store.CreateCause(c.Request.Context(), &cause); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cause)
}

// ListCauses handles GET /api/causes.
func (h *Handler) ListCauses(c *gin.Context) {
	filter := store.CauseFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 1000),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 1000
	}

	var err error
	if filter.IsActive, err = queryBool(c, "isActive"); err != nil {
		respondError(c, err)
		return
	}
	if filter.AffectTRS, err = queryBool(c, "affectTRS"); err != nil {
		respondError(c, err)
		return
	}

	causes, total, err := h.store.ListCauses(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": causes,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// GetCause handles GET /api/causes/:id.
func (h *Handler) GetCause(c *gin.Context) {
	cause, err := h.store.CauseByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cause)
}

type updateCauseRequest struct {
	Code        *string `json:"code" binding:"omitempty,max=32"`
	Name        *string `json:"name" binding:"omitempty,max=128"`
	Category    *string `json:"category" binding:"omitempty,max=64"`
	Description *string `json:"description" binding:"omitempty,max=255"`
	AffectTRS   *bool   `json:"affectTRS"`
	IsActive    *bool   `json:"isActive"`
}

// UpdateCause handles PATCH /api/causes/:id.
func (h *Handler) UpdateCause(c *gin.Context) {
	var req updateCauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validationf("%v", err))
		return
	}

	cause, err := h.store.UpdateCause(c.Request.Context(), c.Param("id"), func(cause *model.Cause) error {
		if req.Code != nil {
			code := strings.TrimSpace(*req.Code)
			if code == "" {
				return apperr.Validationf("code must not be blank")
			}
			cause.Code = code
		}
		if req.Name != nil {
			cause.Name = strings.TrimSpace(*req.Name)
		}
		if req.Category != nil {
			cause.Category = strings.TrimSpace(*req.Category)
		}
		if req.Description != nil {
			desc := strings.TrimSpace(*req.Description)
			if desc == "" {
				cause.Description = nil
			} else {
				cause.Description = &desc
			}
		}
		if req.AffectTRS != nil {
			cause.AffectTRS = *req.AffectTRS
		}
		if req.IsActive != nil {
			cause.IsActive = *req.IsActive
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cause)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validationf("%s must be a boolean", key)
	}
	return &v, nil
}
