package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-task-service/internal/api/dto"
	"github.com/spec-kit/team-task-service/internal/service"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
	"github.com/spec-kit/team-task-service/pkg/util/validation"
)

// TeamsHandler manages team endpoints.
type TeamsHandler struct {
	teams *service.TeamService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teamService *service.TeamService) *TeamsHandler {
	return &TeamsHandler{teams: teamService}
}

// Create POST /teams.
func (h *TeamsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	var req dto.CreateTeamRequest
	if err := parseBody(c, &req, func() {
		req.Name = validation.StripTags(req.Name)
		req.Description = validation.StripTagsPtr(req.Description)
	}); err != nil {
		return err
	}

	team, err := h.teams.Create(c.UserContext(), actor, service.TeamCreateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Team created successfully", fiber.Map{"team": dto.NewTeamResponse(team)})
}

// List GET /teams.
func (h *TeamsHandler) List(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teams, err := h.teams.ListForUser(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", fiber.Map{"teams": dto.NewUserTeamResponses(teams)})
}

// Get GET /teams/:id.
func (h *TeamsHandler) Get(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := uuidParam(c, "id", "team")
	if err != nil {
		return err
	}
	team, err := h.teams.Get(c.UserContext(), actor, teamID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", fiber.Map{"team": dto.NewTeamDetailResponse(team)})
}

// Update PUT /teams/:id.
func (h *TeamsHandler) Update(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := uuidParam(c, "id", "team")
	if err != nil {
		return err
	}
	var req dto.UpdateTeamRequest
	if err := parseBody(c, &req, func() {
		req.Name = validation.StripTagsPtr(req.Name)
	}); err != nil {
		return err
	}
	if req.Name == nil && !req.Description.Set {
		return apperrors.NewBadRequest("At least one field is required to update")
	}
	description := optionalText(req.Description)
	if err := maxLen("Description", description.Value, 500); err != nil {
		return err
	}

	team, err := h.teams.Update(c.UserContext(), actor, teamID, service.TeamUpdateInput{
		Name:        req.Name,
		Description: description,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Team updated successfully", fiber.Map{"team": dto.NewTeamResponse(team)})
}

// Delete DELETE /teams/:id.
func (h *TeamsHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := uuidParam(c, "id", "team")
	if err != nil {
		return err
	}
	if err := h.teams.Delete(c.UserContext(), actor, teamID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Team deleted successfully", nil)
}

// Members GET /teams/:id/members.
func (h *TeamsHandler) Members(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := uuidParam(c, "id", "team")
	if err != nil {
		return err
	}
	members, err := h.teams.Members(c.UserContext(), actor, teamID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", fiber.Map{"members": dto.NewMemberResponses(members)})
}
