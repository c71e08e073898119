package user

import (
	"context"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
)

type uniqueOK struct{}

func (uniqueOK) CheckUniqueness(context.Context, string, string, ...User) error { return nil }

func newTestValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	RegisterValidators(validate, translator)
	return validate, translator
}

func TestNewUser_Validate(t *testing.T) {
	validate, translator := newTestValidator()

	tests := []struct {
		name     string
		nu       NewUser
		wantTags map[string]string // field: tag
	}{
		{
			name: "valid",
			nu:   NewUser{Name: "Jane", Username: "jdoe", Password: "Str0ng#Pass", PasswordConfirm: "Str0ng#Pass", Roles: []string{RoleInstructor}},
		},
		{
			name:     "no username nor email",
			nu:       NewUser{Name: "Jane", Password: "Str0ng#Pass", PasswordConfirm: "Str0ng#Pass"},
			wantTags: map[string]string{"username": usernameOrEmailTag, "email": usernameOrEmailTag},
		},
		{
			name:     "unknown role",
			nu:       NewUser{Name: "Jane", Email: "j@test.cd", Password: "Str0ng#Pass", PasswordConfirm: "Str0ng#Pass", Roles: []string{"student:"}},
			wantTags: map[string]string{"roles": allRolesTag},
		},
		{
			name:     "password mismatch",
			nu:       NewUser{Name: "Jane", Email: "j@test.cd", Password: "Str0ng#Pass", PasswordConfirm: "Str0ng#Pas"},
			wantTags: map[string]string{"password_confirm": "eqfield"},
		},
		{
			name:     "bad phone",
			nu:       NewUser{Name: "Jane", Email: "j@test.cd", Phone: "call me", Password: "Str0ng#Pass", PasswordConfirm: "Str0ng#Pass"},
			wantTags: map[string]string{"phone": "phone"},
		},
		{name: "pwd too short", nu: NewUser{Name: "Jane", Email: "j@test.cd", Password: "S#0rt", PasswordConfirm: "S#0rt"}, wantTags: map[string]string{"password": pwdMinLenTag}},
		{name: "pwd with space", nu: NewUser{Name: "Jane", Email: "j@test.cd", Password: "Str0ng Pass#", PasswordConfirm: "Str0ng Pass#"}, wantTags: map[string]string{"password": pwdNoSpaceTag}},
		{name: "pwd all numeric", nu: NewUser{Name: "Jane", Email: "j@test.cd", Password: "8675309123", PasswordConfirm: "8675309123"}, wantTags: map[string]string{"password": pwdNotAllNumTag}},
		{name: "pwd common", nu: NewUser{Name: "Jane", Email: "j@test.cd", Password: "P@ssw0rd", PasswordConfirm: "P@ssw0rd"}, wantTags: map[string]string{"password": pwdNoCommonTag}},
		{name: "pwd too simple", nu: NewUser{Name: "Jane", Email: "j@test.cd", Password: "lowercase1", PasswordConfirm: "lowercase1"}, wantTags: map[string]string{"password": pwdComplexityTag}},
		{
			name:     "pwd similar to username",
			nu:       NewUser{Name: "Jane", Username: "margaret_k", Password: "Margaret_K1", PasswordConfirm: "Margaret_K1"},
			wantTags: map[string]string{"password": pwdAttrSimTag},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(context.Background(), validate, uniqueOK{})
			if tt.wantTags == nil {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			got := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				got[fe.Field()] = fe.Tag()
			}
			assert.Equal(t, tt.wantTags, got)
			for field, msg := range core.TranslateErrors(vErrs, translator) {
				assert.NotContains(t, msg, "Field validation", field) // translated
			}
		})
	}
}

func TestCheckPasswordPolicy(t *testing.T) {
	usr := User{Name: "Jane Doe", Username: "jdoe", Email: "jdoe@test.cd"}
	assert.NoError(t, CheckPasswordPolicy("Str0ng#Pass", usr))

	err := CheckPasswordPolicy("password", usr)
	require.Error(t, err)
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"password": pwdNoCommonText}, vErr.FieldMap())
}

func TestQueryFilter_Match(t *testing.T) {
	usr := User{Name: "Jane Doe", Username: "jdoe", Email: "jane@test.cd", Department: "Physics", IsActive: true, Roles: []string{RoleAdminOwner}}
	bPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name   string
		filter QueryFilter
		want   bool
	}{
		{"empty", QueryFilter{}, true},
		{"search name", QueryFilter{Search: "DOE"}, true},
		{"search email", QueryFilter{Search: "test.cd"}, true},
		{"search miss", QueryFilter{Search: "lol"}, false},
		{"role prefix", QueryFilter{Roles: []string{RoleAdmin}}, true},
		{"role miss", QueryFilter{Roles: []string{RoleInstructor}}, false},
		{"active", QueryFilter{IsActive: bPtr(true)}, true},
		{"inactive", QueryFilter{IsActive: bPtr(false)}, false},
		{"department", QueryFilter{Department: "physics"}, true},
		{"department miss", QueryFilter{Department: "Maths"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(usr))
		})
	}
}
