package service

import (
	"testing"

	"github.com/Freeeeeet/delivery_slots/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		username string
		email    string
		wantErr  string
	}{
		{name: "compliant", password: "Password1!", username: "alice", email: "alice@example.com"},
		{name: "all lowercase", password: "password", wantErr: "uppercase"},
		{name: "too short", password: "Pw1!", wantErr: "at least 8"},
		{name: "no uppercase", password: "password1!", wantErr: "uppercase"},
		{name: "no digit", password: "Password!", wantErr: "number"},
		{name: "no symbol", password: "Password1", wantErr: "special character"},
		{name: "contains username", password: "Alice#2024ok", username: "alice", email: "a@example.com", wantErr: "username"},
		{name: "contains email", password: "A@example.com1", username: "bob", email: "a@example.com", wantErr: "email"},
		{name: "empty username skipped", password: "Sommar#2024", username: "", email: "x@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, tt.username, tt.email)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
