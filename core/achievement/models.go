package achievement

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/pathwise/core"
)

// NewAchievement contains the information needed to share an achievement.
type NewAchievement struct {
	Title       string `json:"title" validate:"required,nonblank,max=200"`
	Description string `json:"description" validate:"required,nonblank,max=5000"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

func (na *NewAchievement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.ImageURL = core.CleanString(na.ImageURL)
	return validate.Struct(na)
}

// UpdateAchievement is used by admins to edit any achievement.
// Blank fields are left untouched by the origin.
type UpdateAchievement struct {
	Title       string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description string `json:"description,omitempty" validate:"omitempty,max=5000"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

func (ua *UpdateAchievement) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	ua.Description = core.CleanString(ua.Description)
	ua.ImageURL = core.CleanString(ua.ImageURL)
	if ua.Title == "" && ua.Description == "" && ua.ImageURL == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "title", Error: "nothing to update"})
	}
	return validate.Struct(ua)
}

// NewComment is a comment posted on an achievement.
type NewComment struct {
	Content string `json:"content" validate:"required,nonblank,max=2000"`
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.Content = core.CleanString(nc.Content)
	return validate.Struct(nc)
}
