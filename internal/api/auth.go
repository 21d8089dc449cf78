package api

import "context"

// User is the authenticated platform user.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

// Session is returned by login and register.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// Login authenticates with the platform and returns a session token.
// The returned token is also installed on the client for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var sess Session
	if err := c.post(ctx, "/api/v1/auth/login", credentials{Username: username, Password: password}, &sess); err != nil {
		return nil, err
	}
	c.Token = sess.Token
	return &sess, nil
}

// Register creates a new platform account and returns its session.
func (c *Client) Register(ctx context.Context, username, password, email string) (*Session, error) {
	var sess Session
	if err := c.post(ctx, "/api/v1/auth/register", credentials{Username: username, Password: password, Email: email}, &sess); err != nil {
		return nil, err
	}
	c.Token = sess.Token
	return &sess, nil
}
