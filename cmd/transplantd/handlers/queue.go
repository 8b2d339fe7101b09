package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/viniciusmaculo/filaTransplantesBackend/cmd/transplantd/container"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/apperror"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/models"
)

// QueueHandler handles waitlist queue requests
type QueueHandler struct {
	container *container.Container
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(c *container.Container) *QueueHandler {
	return &QueueHandler{container: c}
}

// appendRequest is the body of an append operation
type appendRequest struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	ActingUser string `json:"actingUser"`
}

// callRequest is the body of a call operation
type callRequest struct {
	ActingUser string `json:"actingUser"`
}

// CreateQueue creates a new empty queue
// POST /transplant/:jurisdiction/:resource/create
func (h *QueueHandler) CreateQueue(c echo.Context) error {
	key := queueKey(c)

	txID, err := h.container.Queues.CreateQueue(c.Request().Context(), key, "")
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "queue created with no entries",
		"versionId": txID,
	})
}

// GetQueue returns the current snapshot of a queue
// GET /transplant/:jurisdiction/:resource
func (h *QueueHandler) GetQueue(c echo.Context) error {
	key := queueKey(c)

	record, err := h.container.Queues.GetCurrentSnapshot(c.Request().Context(), key)
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"jurisdiction": key.Jurisdiction,
		"resource":     key.Resource,
		"versionId":    record.TxID,
		"metadata":     record.VersionMeta,
	})
}

// AppendEntry adds a person to the tail of a queue
// POST /transplant/:jurisdiction/:resource
func (h *QueueHandler) AppendEntry(c echo.Context) error {
	key := queueKey(c)

	var req appendRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, apperror.E(apperror.KindValidation, "invalid request body"))
	}
	if req.Identifier == "" || req.Name == "" || req.ActingUser == "" {
		return jsonError(c, apperror.E(apperror.KindValidation, "identifier, name and actingUser are required"))
	}

	record, err := h.container.Queues.AppendEntry(c.Request().Context(), key, req.Identifier, req.Name, req.ActingUser)
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"versionId": record.TxID,
		"metadata":  record.VersionMeta,
	})
}

// CallByPosition calls the person at a 1-based position
// POST /transplant/:jurisdiction/:resource/next/position/:pos
func (h *QueueHandler) CallByPosition(c echo.Context) error {
	key := queueKey(c)

	var req callRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, apperror.E(apperror.KindValidation, "invalid request body"))
	}
	if req.ActingUser == "" {
		return jsonError(c, apperror.E(apperror.KindValidation, "actingUser is required"))
	}

	pos, err := strconv.Atoi(c.Param("pos"))
	if err != nil {
		return jsonError(c, apperror.E(apperror.KindInvalidPosition, "position must be a number"))
	}

	result, err := h.container.Queues.CallByPosition(c.Request().Context(), key, pos, req.ActingUser)
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"called":      result.Called,
		"newSnapshot": result.Record.Entries,
		"versionId":   result.Record.TxID,
	})
}

// CallNext calls the person at position 1; an empty queue is a normal result
// POST /transplant/:jurisdiction/:resource/next
func (h *QueueHandler) CallNext(c echo.Context) error {
	key := queueKey(c)

	var req callRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, apperror.E(apperror.KindValidation, "invalid request body"))
	}
	if req.ActingUser == "" {
		return jsonError(c, apperror.E(apperror.KindValidation, "actingUser is required"))
	}

	result, err := h.container.Queues.CallNext(c.Request().Context(), key, req.ActingUser)
	if err != nil {
		return jsonError(c, err)
	}

	if result.Empty {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"empty": true,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"versionId": result.Record.TxID,
		"metadata":  result.Record.VersionMeta,
	})
}

// GetHistory returns every version of a queue, oldest to newest
// GET /transplant/:jurisdiction/:resource/history
func (h *QueueHandler) GetHistory(c echo.Context) error {
	key := queueKey(c)

	history, err := h.container.Queues.GetHistory(c.Request().Context(), key)
	if err != nil {
		return jsonError(c, err)
	}

	items := make([]map[string]interface{}, 0, len(history))
	for _, record := range history {
		items = append(items, map[string]interface{}{
			"versionId": record.TxID,
			"metadata":  record.VersionMeta,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"jurisdiction":  key.Jurisdiction,
		"resource":      key.Resource,
		"totalVersions": len(history),
		"history":       items,
	})
}

// GetVersion returns one version of a queue by number ("3") or label ("v3")
// GET /transplant/:jurisdiction/:resource/history/:version
func (h *QueueHandler) GetVersion(c echo.Context) error {
	key := queueKey(c)

	raw := strings.TrimPrefix(c.Param("version"), "v")
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return jsonError(c, apperror.E(apperror.KindNotFound, "unknown version %q", c.Param("version")))
	}

	record, err := h.container.Queues.GetVersion(c.Request().Context(), key, version)
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"jurisdiction": key.Jurisdiction,
		"resource":     key.Resource,
		"version":      record.Version,
		"metadata":     record.VersionMeta,
		"versionId":    record.TxID,
	})
}

func queueKey(c echo.Context) models.QueueKey {
	return models.QueueKey{
		Jurisdiction: c.Param("jurisdiction"),
		Resource:     c.Param("resource"),
	}
}

// jsonError maps an error's kind to a status code and JSON body
func jsonError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindAlreadyExists, apperror.KindValidation, apperror.KindInvalidPosition:
		status = http.StatusBadRequest
	}

	return c.JSON(status, map[string]interface{}{
		"error": err.Error(),
	})
}
