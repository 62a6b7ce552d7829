package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"line-monitor-backend/internal/apperr"
	"line-monitor-backend/internal/model"
	"line-monitor-backend/internal/parse"
	"line-monitor-backend/internal/shift"
	"line-monitor-backend/internal/store"
)

// stopResponse is a stop with its derived fields and the resolved
// cause attached.
type stopResponse struct {
	model.Stop
	DurationSeconds *int   `json:"durationSeconds"`
	Equipe          int    `json:"equipe"`
	IsMicro         bool   `json:"isMicro"`
	CauseName       string `json:"causeName,omitempty"`
	CauseCategory   string `json:"causeCategory,omitempty"`
}

func (h *Handler) stopResponse(s model.Stop, causes map[string]model.Cause) stopResponse {
	resp := stopResponse{
		Stop:            s,
		DurationSeconds: s.DurationSeconds(),
		Equipe:          s.Equipe(),
		IsMicro:         shift.IsMicro(s.DurationSeconds(), h.classifier.Threshold()),
	}
	if c, ok := causes[s.CauseCode]; ok {
		resp.CauseName = c.Name
		resp.CauseCategory = c.Category
	}
	return resp
}

func (h *Handler) causesByCode(c *gin.Context) (map[string]model.Cause, error) {
	causes, _, err := h.store.ListCauses(c.Request.Context(), store.CauseFilter{Page: 1, Limit: 1000})
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]model.Cause, len(causes))
	for _, cause := range causes {
		byCode[cause.Code] = cause
	}
	return byCode, nil
}

type createStopRequest struct {
	Day       string  `json:"day" binding:"required"`
	StartTime string  `json:"startTime" binding:"required"`
	StopTime  *string `json:"stopTime"`
	CauseCode string  `json:"causeCode"`
}

// CreateStop handles POST /api/stops. The classifier decides the
// effective cause: micro-stops are reassigned to the reserved
// non-considered cause no matter what the operator entered.
func (h *Handler) CreateStop(c *gin.Context) {
	var req createStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validationf("%v", err))
		return
	}

	day, err := parse.Day(req.Day)
	if err != nil {
		respondError(c, apperr.Validationf("%v", err))
		return
	}
	startTime, err := parse.NormalizeClock(req.StartTime)
	if err != nil {
		respondError(c, apperr.Validationf("%v", err))
		return
	}
	var stopTime *string
	if req.StopTime != nil && *req.StopTime != "" {
		normalized, err := parse.NormalizeClock(*req.StopTime)
		if err != nil {
			respondError(c, apperr.Validationf("%v", err))
			return
		}
		stopTime = &normalized
	}

	startSec, _ := parse.Clock(startTime)
	var stopSec *int
	if stopTime != nil {
		v, _ := parse.Clock(*stopTime)
		stopSec = &v
	}

	result, err := h.classifier.Classify(c.Request.Context(), startSec, stopSec, req.CauseCode)
	if err != nil {
		respondError(c, err)
		return
	}

	stop := model.Stop{
		Day:       day,
		StartTime: startTime,
		StopTime:  stopTime,
		CauseCode: result.Cause.Code,
	}
	if err := h.store.CreateStop(c.Request.Context(), &stop); err != nil {
		respondError(c, err)
		return
	}

	causes, err := h.causesByCode(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.stopResponse(stop, causes))
}

// ListStops handles GET /api/stops.
func (h *Handler) ListStops(c *gin.Context) {
	filter := store.StopFilter{
		CauseCode: c.Query("causeCode"),
		Equipe:    queryInt(c, "equipe", 0),
		From:      c.Query("from"),
		To:        c.Query("to"),
		Page:      queryInt(c, "page", 1),
		Limit:     queryInt(c, "limit", 50),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if err := validateStopListFilter(filter); err != nil {
		respondError(c, err)
		return
	}

	stops, total, err := h.store.ListStops(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	causes, err := h.causesByCode(c)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]stopResponse, 0, len(stops))
	for _, s := range stops {
		items = append(items, h.stopResponse(s, causes))
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

func validateStopListFilter(f store.StopFilter) error {
	if f.From != "" {
		if _, err := parse.Day(f.From); err != nil {
			return apperr.Validationf("%v", err)
		}
	}
	if f.To != "" {
		if _, err := parse.Day(f.To); err != nil {
			return apperr.Validationf("%v", err)
		}
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return apperr.Validationf("from must be <= to")
	}
	if f.Equipe != 0 && !shift.Valid(f.Equipe) {
		return apperr.Validationf("equipe must be 1, 2 or 3")
	}
	return nil
}

// GetStop handles GET /api/stops/:id.
func (h *Handler) GetStop(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperr.Validationf("invalid stop id"))
		return
	}

	stop, err := h.store.StopByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	causes, err := h.causesByCode(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.stopResponse(*stop, causes))
}

type updateStopRequest struct {
	Day       *string `json:"day"`
	StartTime *string `json:"startTime"`
	StopTime  *string `json:"stopTime"` // empty string reopens the stop
	CauseCode *string `json:"causeCode"`
}

// UpdateStop handles PATCH /api/stops/:id. Editing times can flip a
// record between micro-stop and real-stop status, so classification is
// re-run from scratch on the patched values.
func (h *Handler) UpdateStop(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperr.Validationf("invalid stop id"))
		return
	}

	var req updateStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validationf("%v", err))
		return
	}

	stop, err := h.store.UpdateStop(c.Request.Context(), id, func(s *model.Stop) error {
		if req.Day != nil {
			day, err := parse.Day(*req.Day)
			if err != nil {
				return apperr.Validationf("%v", err)
			}
			s.Day = day
		}
		if req.StartTime != nil {
			startTime, err := parse.NormalizeClock(*req.StartTime)
			if err != nil {
				return apperr.Validationf("%v", err)
			}
			s.StartTime = startTime
		}
		if req.StopTime != nil {
			if *req.StopTime == "" {
				s.StopTime = nil
			} else {
				stopTime, err := parse.NormalizeClock(*req.StopTime)
				if err != nil {
					return apperr.Validationf("%v", err)
				}
				s.StopTime = &stopTime
			}
		}

		suppliedCode := s.CauseCode
		if req.CauseCode != nil {
			suppliedCode = *req.CauseCode
		}

		result, err := h.classifier.Classify(c.Request.Context(), s.StartSeconds(), s.StopSeconds(), suppliedCode)
		if err != nil {
			return err
		}
		s.CauseCode = result.Cause.Code
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	causes, err := h.causesByCode(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.stopResponse(*stop, causes))
}
