package forms

import (
	"github.com/jrsteele09/vineyard-dashboard/resources"
	"github.com/jrsteele09/vineyard-dashboard/session"
	"github.com/jrsteele09/vineyard-dashboard/users"
)

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type SignupForm struct {
	FirstName       string `form:"firstName" validate:"required,max=60"`
	LastName        string `form:"lastName" validate:"max=60"`
	Email           string `form:"email" validate:"required,email"`
	Phone           string `form:"phone" validate:"omitempty,max=20"`
	Password        string `form:"password" validate:"required,password"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string `form:"role" validate:"required,role"`
	CompanyName     string `form:"companyName" validate:"required_if=Role serviceCompany,max=120"`
}

func (f SignupForm) Session() session.SignupForm {
	return session.SignupForm{
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Email:       f.Email,
		Password:    f.Password,
		Phone:       f.Phone,
		Role:        users.Role(f.Role),
		CompanyName: f.CompanyName,
	}
}

// AccountForm edits an account record; admins may also set a password when creating one
type AccountForm struct {
	FirstName   string  `form:"firstName" validate:"max=60"`
	LastName    string  `form:"lastName" validate:"max=60"`
	Email       string  `form:"email" validate:"required,email"`
	Phone       string  `form:"phone" validate:"omitempty,max=20"`
	Role        string  `form:"role" validate:"required,role"`
	CompanyName string  `form:"companyName" validate:"max=120"`
	ABN         string  `form:"abn" validate:"omitempty,len=11,numeric"`
	Skills      string  `form:"skills" validate:"max=500"`
	HourlyRate  float64 `form:"hourlyRate" validate:"gte=0,lte=1000"`
	Password    string  `form:"password" validate:"omitempty,password"`
}

func AccountFormFrom(u users.User) AccountForm {
	return AccountForm{
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        string(u.Role),
		CompanyName: u.CompanyName,
		ABN:         u.ABN,
		Skills:      JoinList(u.Skills),
		HourlyRate:  u.HourlyRate,
	}
}

func (f AccountForm) User() users.User {
	return users.User{
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Email:       f.Email,
		Phone:       f.Phone,
		Role:        users.Role(f.Role),
		CompanyName: f.CompanyName,
		ABN:         f.ABN,
		Skills:      SplitList(f.Skills),
		HourlyRate:  f.HourlyRate,
	}
}

func (f AccountForm) SignupRequest() resources.SignupRequest {
	return resources.SignupRequest{User: f.User(), Password: f.Password}
}
