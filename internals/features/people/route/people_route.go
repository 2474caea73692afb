package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	peopleController "schoolku_backend/internals/features/people/controller"
	"schoolku_backend/internals/features/people/service"
)

/*
Admin routes (mount di group /api/a/:branch_id yang sudah lewat Auth + BranchScope):
- GET    /persons
- POST   /persons
- GET    /persons/:ref
- PATCH  /persons/:ref/active
*/
func PeopleAdminRoutes(r fiber.Router, reg *service.Registry, v *validator.Validate) {
	ctl := peopleController.NewPeopleController(reg, v)

	persons := r.Group("/persons")
	persons.Get("/", ctl.List)
	persons.Post("/", ctl.Onboard)
	persons.Get("/:ref", ctl.Get)
	persons.Patch("/:ref/active", ctl.SetActive)
}

// Owner routes (mount di /api/o)
func BranchOwnerRoutes(r fiber.Router, reg *service.Registry, v *validator.Validate) {
	ctl := peopleController.NewPeopleController(reg, v)

	branches := r.Group("/branches")
	branches.Get("/", ctl.ListBranches)
	branches.Post("/", ctl.CreateBranch)
}
