package api

import (
	"context"
	"encoding/json"
)

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

type Profile struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Auth struct{ c *Client }

func (a Auth) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"email": email, "password": password}
	err := a.c.post(ctx, pathLogin, body, &out)
	return out, err
}

func (a Auth) Logout(ctx context.Context) error {
	return a.c.post(ctx, pathLogout, nil, nil)
}

func (a Auth) Profile(ctx context.Context) (Profile, error) {
	var raw json.RawMessage
	if err := a.c.get(ctx, pathProfile, nil, &raw); err != nil {
		return Profile{}, err
	}
	return wrapDecode(decodeItem[Profile](raw, "admin"))
}
