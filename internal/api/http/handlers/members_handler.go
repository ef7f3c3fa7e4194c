package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-task-service/internal/api/dto"
	"github.com/spec-kit/team-task-service/internal/service"
)

// MembersHandler manages team membership endpoints under /teams/:teamId/members.
type MembersHandler struct {
	members *service.MembershipService
}

// NewMembersHandler constructs handler.
func NewMembersHandler(membershipService *service.MembershipService) *MembersHandler {
	return &MembersHandler{members: membershipService}
}

// Add POST /teams/:teamId/members.
func (h *MembersHandler) Add(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := uuidParam(c, "teamId", "team")
	if err != nil {
		return err
	}
	var req dto.AddMemberRequest
	if err := parseBody(c, &req, nil); err != nil {
		return err
	}

	membership, err := h.members.AddMember(c.UserContext(), actor, teamID, req.Email, req.Role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Member added successfully", fiber.Map{"membership": dto.NewMembershipResponse(membership)})
}

// UpdateRole PUT /teams/:teamId/members/:memberId.
func (h *MembersHandler) UpdateRole(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := uuidParam(c, "teamId", "team")
	if err != nil {
		return err
	}
	memberID, err := uuidParam(c, "memberId", "member")
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := parseBody(c, &req, nil); err != nil {
		return err
	}

	membership, err := h.members.UpdateRole(c.UserContext(), actor, teamID, memberID, req.Role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Member role updated successfully", fiber.Map{"membership": dto.NewMembershipResponse(membership)})
}

// Remove DELETE /teams/:teamId/members/:memberId.
func (h *MembersHandler) Remove(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := uuidParam(c, "teamId", "team")
	if err != nil {
		return err
	}
	memberID, err := uuidParam(c, "memberId", "member")
	if err != nil {
		return err
	}
	if err := h.members.RemoveMember(c.UserContext(), actor, teamID, memberID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Member removed successfully", nil)
}

// Leave POST /teams/:teamId/members/leave.
func (h *MembersHandler) Leave(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := uuidParam(c, "teamId", "team")
	if err != nil {
		return err
	}
	if err := h.members.Leave(c.UserContext(), actor, teamID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Successfully left the team", nil)
}
