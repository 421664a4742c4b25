package actions

import (
	"context"
	"encoding/json"
	"net/http"

	"vibeclient/internal/gateway"
	"vibeclient/internal/models"
	"vibeclient/internal/navigation"
	"vibeclient/internal/toast"
)

// RegisterInput is what a new user fills in on the sign-up page.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// RegisterResult is the sign-up response. User is set when the server wraps
// the new account in an envelope; Raw always holds the body.
type RegisterResult struct {
	User *models.User
	Raw  json.RawMessage
}

// Auth covers sign-in, sign-up and sign-out.
type Auth struct {
	api     API
	session Session
	nav     navigation.Navigator
	reporter

	login    Tracker
	register Tracker
	refresh  Tracker
}

// NewAuth wires the auth hooks. notify may be nil.
func NewAuth(api API, session Session, nav navigation.Navigator, notify Notifier) *Auth {
	return &Auth{
		api:      api,
		session:  session,
		nav:      nav,
		reporter: newReporter("auth", notify),
	}
}

// LoginState is the sign-in hook state.
func (a *Auth) LoginState() State { return a.login.State() }

// RegisterState is the sign-up hook state.
func (a *Auth) RegisterState() State { return a.register.State() }

// Login signs in and stores the session.
func (a *Auth) Login(ctx context.Context, email, password string) (_ models.AuthResponse, err error) {
	a.login.begin()
	defer func() { a.login.end(err) }()

	resp, err := a.api.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   models.LoginRequest{Email: email, Password: password},
		Public: true,
	})
	if err != nil {
		return models.AuthResponse{}, a.fail(ctx, "login", err, "Login failed")
	}

	payload, err := models.DecodeJSON[models.AuthResponse](resp.Body)
	if err != nil {
		return models.AuthResponse{}, a.fail(ctx, "login", err, "Login failed")
	}
	if err := a.session.SetAuth(ctx, payload.Token, payload.User); err != nil {
		return models.AuthResponse{}, a.fail(ctx, "login", err, "Could not save the session")
	}

	a.log.Info(ctx, "signed in")
	a.success("Welcome back, " + displayName(payload.User))
	return payload, nil
}

// Register creates an account. It never signs the caller in.
func (a *Auth) Register(ctx context.Context, in RegisterInput) (_ RegisterResult, err error) {
	a.register.begin()
	defer func() { a.register.end(err) }()

	req := models.RegisterRequest{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
	}
	if verr := models.Validate(req); verr != nil {
		return RegisterResult{}, a.fail(ctx, "register",
			models.NewValidationError("Please fill in a username, a valid email, your name and a password of at least 6 characters"),
			"Registration failed")
	}

	resp, err := a.api.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body:   req,
		Public: true,
	})
	if err != nil {
		return RegisterResult{}, a.fail(ctx, "register", err, "Registration failed")
	}

	result := RegisterResult{Raw: json.RawMessage(resp.Body)}
	if user, decodeErr := models.DecodeEnvelope[models.User](resp.Body); decodeErr == nil {
		result.User = &user
	}

	a.success("Account created, please sign in")
	return result, nil
}

// Logout ends the session and returns to the sign-in page.
func (a *Auth) Logout(ctx context.Context) error {
	err := a.session.ClearAuth(ctx)
	if a.nav != nil {
		a.nav.Navigate(navigation.SignInPath)
	}
	if err != nil {
		return a.fail(ctx, "logout", err, "Could not clear the saved session")
	}
	a.notify.Show("Signed out", toast.Info)
	return nil
}

// RefreshUser loads the signed-in user for a session restored from storage,
// which carries only the token.
func (a *Auth) RefreshUser(ctx context.Context) (_ models.User, err error) {
	a.refresh.begin()
	defer func() { a.refresh.end(err) }()

	token := a.session.Token()
	if token == "" {
		return models.User{}, a.fail(ctx, "refresh_user", models.NewSessionError(), models.MsgNoSession)
	}

	resp, err := a.api.Do(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/users/profile",
	})
	if err != nil {
		return models.User{}, a.fail(ctx, "refresh_user", err, "Could not load your account")
	}
	user, err := models.DecodeEnvelope[models.User](resp.Body)
	if err != nil {
		return models.User{}, a.fail(ctx, "refresh_user", err, "Could not load your account")
	}

	// The session may have been cleared or replaced while the call was out.
	if a.session.Token() != token {
		return models.User{}, a.fail(ctx, "refresh_user", models.NewSessionError(), models.MsgNoSession)
	}
	user.Posts = nil
	if err := a.session.SetAuth(ctx, token, user); err != nil {
		return models.User{}, a.fail(ctx, "refresh_user", err, "Could not save the session")
	}
	return user, nil
}

func displayName(u models.User) string {
	switch {
	case u.FullName != "":
		return u.FullName
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}
