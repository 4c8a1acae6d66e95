package masterdata

import (
	"errors"
	"time"

	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProjectRequest struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Client       string `json:"client"`
	Status       string `json:"status"`
	OrderAmount  int64  `json:"order_amount"`
	BudgetAmount int64  `json:"budget_amount"`
	StartDate    string `json:"start_date"` // "2024-04-01", optional
	EndDate      string `json:"end_date"`   // optional
	SalesPerson  string `json:"sales_person"`
	SitePerson   string `json:"site_person"`
}

// ProjectUpdateRequest carries only the fields to change; nil fields
// are left untouched. A provided empty start/end date clears it.
type ProjectUpdateRequest struct {
	Code         *string `json:"code"`
	Name         *string `json:"name"`
	Client       *string `json:"client"`
	Status       *string `json:"status"`
	OrderAmount  *int64  `json:"order_amount"`
	BudgetAmount *int64  `json:"budget_amount"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	SalesPerson  *string `json:"sales_person"`
	SitePerson   *string `json:"site_person"`
}

type ProjectResponse struct {
	ID           uint   `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Client       string `json:"client"`
	Status       string `json:"status"`
	OrderAmount  int64  `json:"order_amount"`
	BudgetAmount int64  `json:"budget_amount"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	SalesPerson  string `json:"sales_person"`
	SitePerson   string `json:"site_person"`
}

func toProjectResponse(p *models.Project) ProjectResponse {
	fmtDate := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	}
	return ProjectResponse{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Name,
		Client:       p.Client,
		Status:       p.Status,
		OrderAmount:  p.OrderAmount,
		BudgetAmount: p.BudgetAmount,
		StartDate:    fmtDate(p.StartDate),
		EndDate:      fmtDate(p.EndDate),
		SalesPerson:  p.SalesPerson,
		SitePerson:   p.SitePerson,
	}
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// -------------------------------------------------
// POST /api/projects
// -------------------------------------------------
func CreateProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProjectRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		if body.OrderAmount < 0 || body.BudgetAmount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amounts must not be negative")
		}

		startDate, err := parseOptionalDate(body.StartDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "start_date must be in YYYY-MM-DD format")
		}
		endDate, err := parseOptionalDate(body.EndDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "end_date must be in YYYY-MM-DD format")
		}

		project := models.Project{
			Code:         body.Code,
			Name:         body.Name,
			Client:       body.Client,
			Status:       body.Status,
			OrderAmount:  body.OrderAmount,
			BudgetAmount: body.BudgetAmount,
			StartDate:    startDate,
			EndDate:      endDate,
			SalesPerson:  body.SalesPerson,
			SitePerson:   body.SitePerson,
		}
		if err := database.DB.Create(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "a project with this code already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not create project")
		}

		return c.Status(fiber.StatusCreated).JSON(toProjectResponse(&project))
	}
}

// -------------------------------------------------
// GET /api/projects
// -------------------------------------------------
func ListProjectsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.Project{})
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if client := c.Query("client"); client != "" {
			query = query.Where("client = ?", client)
		}

		var projects []models.Project
		if err := query.Order("id DESC").Find(&projects).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch projects")
		}

		out := make([]ProjectResponse, 0, len(projects))
		for i := range projects {
			out = append(out, toProjectResponse(&projects[i]))
		}
		return c.JSON(out)
	}
}

// -------------------------------------------------
// GET /api/projects/:id
// -------------------------------------------------
func GetProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid project id")
		}

		var project models.Project
		if err := database.DB.First(&project, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "project not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch project")
		}

		return c.JSON(toProjectResponse(&project))
	}
}

// -------------------------------------------------
// PUT /api/projects/:id
// -------------------------------------------------
func UpdateProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid project id")
		}

		var project models.Project
		if err := database.DB.First(&project, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "project not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch project")
		}

		var body ProjectUpdateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name != nil {
			if *body.Name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			project.Name = *body.Name
		}
		if body.Code != nil {
			project.Code = *body.Code
		}
		if body.Client != nil {
			project.Client = *body.Client
		}
		if body.Status != nil {
			project.Status = *body.Status
		}
		if body.OrderAmount != nil {
			if *body.OrderAmount < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "amounts must not be negative")
			}
			project.OrderAmount = *body.OrderAmount
		}
		if body.BudgetAmount != nil {
			if *body.BudgetAmount < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "amounts must not be negative")
			}
			project.BudgetAmount = *body.BudgetAmount
		}
		if body.StartDate != nil {
			startDate, err := parseOptionalDate(*body.StartDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "start_date must be in YYYY-MM-DD format")
			}
			project.StartDate = startDate
		}
		if body.EndDate != nil {
			endDate, err := parseOptionalDate(*body.EndDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "end_date must be in YYYY-MM-DD format")
			}
			project.EndDate = endDate
		}
		if body.SalesPerson != nil {
			project.SalesPerson = *body.SalesPerson
		}
		if body.SitePerson != nil {
			project.SitePerson = *body.SitePerson
		}

		if err := database.DB.Save(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "a project with this code already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not update project")
		}

		return c.JSON(toProjectResponse(&project))
	}
}

// -------------------------------------------------
// DELETE /api/projects/:id
// Refused while progress entries exist - delete those first, which also
// clears their linked forecasts.
// -------------------------------------------------
func DeleteProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid project id")
		}

		var count int64
		if err := database.DB.Model(&models.MonthlyProgress{}).
			Where("project_id = ?", id).Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not check progress entries")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "project has progress entries; delete them first")
		}

		res := database.DB.Delete(&models.Project{}, "id = ?", id)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete project")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "project not found")
		}

		return c.JSON(fiber.Map{"ok": true})
	}
}
