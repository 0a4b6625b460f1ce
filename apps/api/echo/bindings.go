package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/model"
	"github.com/trezcool/academia/core/review"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses `?ordering=-price,title`; a leading "-" means descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// boolParam parses an optional boolean query param. An unparsable value is reported as a field error.
func boolParam(ctx echo.Context, name string) (*bool, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: name, Error: name + " must be a boolean"})
	}
	return &b, nil
}

func bindCourseFilter(ctx echo.Context) (*course.QueryFilter, error) {
	published, err := boolParam(ctx, "published")
	if err != nil {
		return nil, err
	}
	return &course.QueryFilter{
		Search:      core.CleanString(ctx.QueryParam("search")),
		IsPublished: published,
	}, nil
}

func bindRoleGrantFilter(ctx echo.Context) account.RoleGrantFilter {
	return account.RoleGrantFilter{
		PrincipalID: ctx.QueryParam("principal_id"),
		Role:        model.Role(ctx.QueryParam("role")),
	}
}

func bindEnrollmentFilter(ctx echo.Context) enrollment.QueryFilter {
	return enrollment.QueryFilter{
		PrincipalID: ctx.QueryParam("principal_id"),
		CourseID:    ctx.QueryParam("course_id"),
		Status:      model.EnrollmentStatus(ctx.QueryParam("status")),
	}
}

func bindReviewFilter(ctx echo.Context, courseID string) (review.QueryFilter, error) {
	approved, err := boolParam(ctx, "approved")
	if err != nil {
		return review.QueryFilter{}, err
	}
	return review.QueryFilter{
		CourseID:    courseID,
		PrincipalID: ctx.QueryParam("principal_id"),
		IsApproved:  approved,
	}, nil
}
