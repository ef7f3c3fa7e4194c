package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-task-service/internal/api/dto"
	"github.com/spec-kit/team-task-service/internal/auth"
	"github.com/spec-kit/team-task-service/internal/service"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
	"github.com/spec-kit/team-task-service/pkg/util/validation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.Envelope{Success: true, Message: message, Data: data})
}

// parseBody decodes the JSON body and runs struct validation.
func parseBody(c *fiber.Ctx, out any, sanitize func()) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewBadRequest("Invalid request payload")
	}
	if sanitize != nil {
		sanitize()
	}
	return validation.ValidateStruct(out)
}

// uuidParam returns the named path parameter or BadRequest when it is not an id.
func uuidParam(c *fiber.Ctx, name, label string) (string, error) {
	id := c.Params(name)
	if !validation.IsUUID(id) {
		return "", apperrors.NewBadRequest("Invalid " + label + " ID format")
	}
	return id, nil
}

func actorID(c *fiber.Ctx) (string, error) {
	principal, err := auth.RequirePrincipal(c)
	if err != nil {
		return "", err
	}
	return principal.User.ID, nil
}

// optionalText strips tags from an optional field; blank stays blank and the
// service stores it as null.
func optionalText(o dto.Optional[string]) service.Nullable[string] {
	if !o.Set {
		return service.Nullable[string]{}
	}
	if o.Value == nil {
		return service.Null[string]()
	}
	return service.Some(validation.StripTags(*o.Value))
}

func maxLen(field string, value *string, limit int) error {
	if value != nil && len([]rune(*value)) > limit {
		return apperrors.NewValidationError(field+" must not exceed "+strconv.Itoa(limit)+" characters",
			map[string]any{strings.ToLower(field): "too long"})
	}
	return nil
}

// pagination turns page and limit query values into limit and offset. Without
// either the listing is unpaginated.
func pagination(c *fiber.Ctx) (limit, offset int) {
	page := c.QueryInt("page", 0)
	limit = c.QueryInt("limit", 0)
	if page <= 0 && limit <= 0 {
		return 0, 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
