package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-workflow/internal/api/dto"
	"github.com/spec-kit/request-workflow/internal/auth"
	"github.com/spec-kit/request-workflow/internal/domain"
	"github.com/spec-kit/request-workflow/internal/refdata"
	"github.com/spec-kit/request-workflow/internal/service"
	apperrors "github.com/spec-kit/request-workflow/pkg/util"
)

// RequestsHandler manages request endpoints.
type RequestsHandler struct {
	requests   *service.RequestService
	forwards   *service.ForwardService
	duplicates *service.DuplicateService
	refdata    *refdata.Cache
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests *service.RequestService, forwards *service.ForwardService, duplicates *service.DuplicateService, cache *refdata.Cache) *RequestsHandler {
	return &RequestsHandler{
		requests:   requests,
		forwards:   forwards,
		duplicates: duplicates,
		refdata:    cache,
	}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("login required")
	}
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.requests.Create(c.UserContext(), principal.User.ID, service.RequestCreateInput{
		Title:      req.Title,
		Content:    req.Content,
		Priority:   req.Priority,
		CategoryID: req.CategoryID,
		CreatedAt:  req.CreatedDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.requestResponse(c, request)})
}

// List GET /requests?status=.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	filter := service.RequestListFilter{}
	if statusStr := strings.TrimSpace(c.Query("status")); statusStr != "" {
		stage := domain.Stage(statusStr)
		if !stage.Valid() {
			return apperrors.NewValidationError("unknown status filter", map[string]any{"status": statusStr})
		}
		filter.Stage = &stage
	}
	if holder := strings.TrimSpace(c.Query("holder")); holder != "" {
		filter.HolderID = &holder
	}
	filter.Limit = c.QueryInt("limit", 0)
	filter.Offset = c.QueryInt("offset", 0)

	requests, err := h.requests.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, h.requestResponse(c, &requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	request, err := h.requests.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.requestResponse(c, request)})
}

// Update PUT /requests/:id.
func (h *RequestsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("login required")
	}
	var req dto.UpdateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.requests.Update(c.UserContext(), principal.User.ID, c.Params("id"), service.RequestUpdateInput{
		Title:      req.Title,
		Content:    req.Content,
		Priority:   req.Priority,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.requestResponse(c, request)})
}

// Delete DELETE /requests/:id.
func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("login required")
	}
	if err := h.requests.Remove(c.UserContext(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// Forward POST /requests/forward/:id.
func (h *RequestsHandler) Forward(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("login required")
	}
	var req dto.ForwardRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.forwards.Forward(c.UserContext(), principal.User.ID, c.Params("id"), service.ForwardInput{
		TargetPersonID: req.PeopleID,
		ActionID:       req.ActionID,
		Version:        req.Version,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.requestResponse(c, request)})
}

// MarkDuplicate POST /requests/:id/duplicate.
func (h *RequestsHandler) MarkDuplicate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("login required")
	}
	var req dto.MarkDuplicateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	requestID := c.Params("id")
	if err := h.duplicates.MarkDuplicate(c.UserContext(), principal.User.ID, requestID, req.OfRequestID); err != nil {
		return err
	}
	return h.duplicateGroup(c, requestID)
}

// ClearDuplicate DELETE /requests/:id/duplicate.
func (h *RequestsHandler) ClearDuplicate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("login required")
	}
	requestID := c.Params("id")
	if err := h.duplicates.ClearDuplicate(c.UserContext(), principal.User.ID, requestID); err != nil {
		return err
	}
	return h.duplicateGroup(c, requestID)
}

// GetDuplicateGroup GET /requests/:id/duplicate.
func (h *RequestsHandler) GetDuplicateGroup(c *fiber.Ctx) error {
	return h.duplicateGroup(c, c.Params("id"))
}

func (h *RequestsHandler) duplicateGroup(c *fiber.Ctx, requestID string) error {
	group, err := h.duplicates.GroupOf(c.UserContext(), requestID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DuplicateGroupResponse{
		RequestID: requestID,
		Group:     group,
	}})
}

func (h *RequestsHandler) requestResponse(c *fiber.Ctx, request *domain.Request) dto.RequestResponse {
	history := make([]dto.ProcessRecordResponse, 0, len(request.History))
	for _, record := range request.History {
		history = append(history, dto.ProcessRecordResponse{
			PersonID:  record.PersonID,
			ActionID:  record.ActionID,
			Timestamp: record.Timestamp,
		})
	}
	resp := dto.RequestResponse{
		ID:              request.ID,
		Title:           request.Title,
		Content:         request.Content,
		CreatedAt:       request.CreatedAt,
		Priority:        request.Priority,
		CategoryID:      request.CategoryID,
		Status:          request.Status,
		CurrentHolderID: request.CurrentHolderID,
		Version:         request.Version,
		History:         history,
	}
	if h.refdata != nil {
		resp.Category = h.refdata.CategoryName(c.UserContext(), request.CategoryID)
	}
	return resp
}
