package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{"number", `{"current_user_id": 42}`, "42", false},
		{"string", `{"current_user_id": "42"}`, "42", false},
		{"uuid string", `{"current_user_id": "b3c1-9f"}`, "b3c1-9f", false},
		{"null", `{"current_user_id": null}`, "", false},
		{"bool", `{"current_user_id": true}`, "", true},
		{"object", `{"current_user_id": {}}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ProbeResult
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.CurrentUserID)
		})
	}
}

func TestMemberStatus(t *testing.T) {
	assert.Equal(t, StatusAccepted, Member{PasswordSet: true}.Status())
	assert.Equal(t, StatusPending, Member{}.Status())
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleMember))
	assert.False(t, ValidRole("owner"))
	assert.False(t, ValidRole(""))
}

func TestAuthPayload_Decode(t *testing.T) {
	var p AuthPayload
	require.NoError(t, json.Unmarshal([]byte(`{"user":{"id":"1","email":"a@b.c"},"token":"t","errors":[]}`), &p))
	assert.Equal(t, "t", p.Token)
	require.NotNil(t, p.User)
	assert.Equal(t, ID("1"), p.User.ID)
}
