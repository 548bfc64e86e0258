package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestStruct struct {
	Username string `json:"username" validate:"required,alphanum,min=3"`
	Email    string `form:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := TestStruct{Username: "alice", Email: "alice@example.com", Password: "pw"}

		err := ValidateStruct(&s)
		assert.NoError(t, err)
	})

	t.Run("missing required field uses wire name", func(t *testing.T) {
		s := TestStruct{Username: "alice"}

		err := ValidateStruct(&s)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "password is required", fields["password"])

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.True(t, validationErr.MissingRequired())
	})

	t.Run("invalid email uses form name", func(t *testing.T) {
		s := TestStruct{Username: "alice", Email: "nope", Password: "pw"}

		err := ValidateStruct(&s)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "email")

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.False(t, validationErr.MissingRequired())
	})

	t.Run("too short and non alphanumeric", func(t *testing.T) {
		s := TestStruct{Username: "a!", Password: "pw"}

		err := ValidateStruct(&s)
		require.Error(t, err)
		assert.Contains(t, GetValidationFields(err), "username")
	})
}

func TestValidateUUID(t *testing.T) {
	tests := []struct {
		name      string
		uuid      string
		wantError bool
	}{
		{name: "valid UUID", uuid: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "invalid UUID - wrong format", uuid: "not-a-uuid", wantError: true},
		{name: "empty string", uuid: "", wantError: true},
		{name: "invalid UUID - missing parts", uuid: "550e8400-e29b-41d4", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ValidateUUID(tt.uuid)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.uuid, id.String())
		})
	}
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{Message: "test"}))
	assert.False(t, IsValidationError(assert.AnError))
	assert.Nil(t, GetValidationFields(assert.AnError))
	assert.Equal(t, "test", (&ValidationError{Message: "test"}).Error())
}
