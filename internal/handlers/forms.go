package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"yatube/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// PostForm is used for both creating and editing a post.
type PostForm struct {
	Text  string `form:"text" binding:"required,notblank"`
	Group string `form:"group"`
	Image string `form:"-"`
}

type CommentForm struct {
	Text string `form:"text" binding:"required,notblank"`
}

type SignupForm struct {
	FirstName string `form:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" binding:"max=150"`
	Username  string `form:"username" binding:"required,max=150,username"`
	Password1 string `form:"password1" binding:"required,min=8"`
	Password2 string `form:"password2" binding:"required,eqfield=Password1"`
}

type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

var registerOnce sync.Once

// registerValidators reports field errors under their form names and adds
// the notblank and username rules to gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return utils.ValidUsername(fl.Field().String())
		})
	})
}

// bindForm binds the request into form and returns field -> message for
// every rule that failed. The map is never nil.
func bindForm(c *gin.Context, form interface{}) map[string]string {
	registerValidators()

	errs := map[string]string{}
	err := c.ShouldBind(form)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["form"] = "The submitted form could not be read."
		return errs
	}
	for _, fe := range verrs {
		errs[fe.Field()] = fieldMessage(fe)
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return msgRequired
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("This password is too short. It must contain at least %s characters.", fe.Param())
	case "eqfield":
		return "The two password fields didn't match."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return "Enter a valid value."
	}
}
