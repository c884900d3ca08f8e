package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/nishiko/matsuri-backend/internal/service"
)

// PartHandler handles part HTTP endpoints
type PartHandler struct {
	partService *service.PartService
}

// NewPartHandler creates a new PartHandler
func NewPartHandler(partService *service.PartService) *PartHandler {
	return &PartHandler{partService: partService}
}

// AddMemberRequest represents the add member request body
type AddMemberRequest struct {
	StudentID string `json:"studentId"`
	Role      int32  `json:"role"`
	IsLeader  bool   `json:"isLeader"`
}

// UpdateMemberRoleRequest represents the role change request body
type UpdateMemberRoleRequest struct {
	Role int32 `json:"role"`
}

// GetPart retrieves one part.
func (h *PartHandler) GetPart(c echo.Context) error {
	partID, err := uuid.Parse(c.Param("partId"))
	if err != nil {
		return NewValidationError(c, "Invalid part ID", nil)
	}

	part, err := h.partService.Get(partID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, part)
}

// GetMembers lists the part's members with their roles.
func (h *PartHandler) GetMembers(c echo.Context) error {
	partID, err := uuid.Parse(c.Param("partId"))
	if err != nil {
		return NewValidationError(c, "Invalid part ID", nil)
	}

	members, err := h.partService.Members(partID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

// AddMember adds a student to the part with a role.
func (h *PartHandler) AddMember(c echo.Context) error {
	partID, err := uuid.Parse(c.Param("partId"))
	if err != nil {
		return NewValidationError(c, "Invalid part ID", nil)
	}

	var req AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return NewValidationError(c, "Invalid student ID", []ValidationError{
			{Field: "studentId", Message: "Must be a valid UUID"},
		})
	}
	role := domain.Role(req.Role)
	if !role.Valid() {
		return NewValidationError(c, "Invalid role", []ValidationError{
			{Field: "role", Message: "Must be one of: 1 (accountant), 2 (sub-accountant), 3 (member)"},
		})
	}

	if err := h.partService.AddMember(partID, studentID, role, req.IsLeader); err != nil {
		return domainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateMemberRole changes a member's role within the part.
func (h *PartHandler) UpdateMemberRole(c echo.Context) error {
	partID, err := uuid.Parse(c.Param("partId"))
	if err != nil {
		return NewValidationError(c, "Invalid part ID", nil)
	}
	studentID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		return NewValidationError(c, "Invalid student ID", nil)
	}

	var req UpdateMemberRoleRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	role := domain.Role(req.Role)
	if !role.Valid() {
		return NewValidationError(c, "Invalid role", []ValidationError{
			{Field: "role", Message: "Must be one of: 1 (accountant), 2 (sub-accountant), 3 (member)"},
		})
	}

	if err := h.partService.UpdateMemberRole(partID, studentID, role); err != nil {
		return domainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
