package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"vibeclient/internal/actions"
	"vibeclient/internal/app"
	"vibeclient/internal/models"
	"vibeclient/internal/navigation"
	"vibeclient/internal/render"
	"vibeclient/internal/toast"

	"github.com/spf13/pflag"
)

const profilePath = "/profile"

var errUsage = errors.New("usage error")

// watchToasts writes every visible toast to w, styled for w's terminal.
func watchToasts(ch *toast.Channel, w io.Writer) func() {
	p := render.New(w)
	return ch.Subscribe(func(s toast.State) {
		fmt.Fprint(w, p.Toast(s))
	})
}

// execute runs one command. Failures have already been reported through the
// toast channel; the error only decides the exit status.
func execute(ctx context.Context, a *app.App, p *render.Printer, out io.Writer, args []string) error {
	name, rest := args[0], args[1:]

	switch name {
	case "login":
		fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		a.Router.Navigate(navigation.SignInPath)
		if _, err := a.Auth.Login(ctx, *email, *password); err != nil {
			return err
		}
		a.Router.Navigate(navigation.FeedPath)
		fmt.Fprint(out, p.Session(a.Session.Snapshot()))
		return nil

	case "register":
		fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
		var in actions.RegisterInput
		fs.StringVar(&in.Username, "username", "", "user name")
		fs.StringVar(&in.Email, "email", "", "account email")
		fs.StringVar(&in.Password, "password", "", "password, at least 6 characters")
		fs.StringVar(&in.FullName, "full-name", "", "display name")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		a.Router.Navigate(navigation.SignUpPath)
		res, err := a.Auth.Register(ctx, in)
		if err != nil {
			return err
		}
		if res.User != nil {
			fmt.Fprint(out, p.Profile(*res.User))
		}
		return nil

	case "logout":
		return a.Auth.Logout(ctx)

	case "whoami":
		if a.Session.IsAuthenticated() && a.Session.Snapshot().User == nil {
			if _, err := a.Auth.RefreshUser(ctx); err != nil {
				return err
			}
		}
		fmt.Fprint(out, p.Session(a.Session.Snapshot()))
		return nil

	case "feed":
		a.Router.Navigate(navigation.FeedPath)
		if _, err := a.Feed.FetchFeed(ctx); err != nil {
			return err
		}
		fmt.Fprint(out, p.Feed(a.Posts.Snapshot().Items))
		return nil

	case "post":
		fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
		content := fs.String("content", "", "post text")
		imagePath := fs.String("image", "", "path of an image to attach")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		a.Router.Navigate(navigation.FeedPath)

		var img *actions.Image
		if *imagePath != "" {
			f, err := os.Open(*imagePath)
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			defer f.Close()
			img = &actions.Image{
				Filename:    filepath.Base(*imagePath),
				ContentType: mime.TypeByExtension(filepath.Ext(*imagePath)),
				Content:     f,
			}
		}
		post, err := a.Feed.CreatePost(ctx, *content, img)
		if err != nil {
			return err
		}
		fmt.Fprint(out, p.Post(post))
		return nil

	case "like":
		if len(rest) != 1 {
			fmt.Fprintln(out, "usage: vibeclient like <post-id>")
			return errUsage
		}
		a.Router.Navigate(navigation.FeedPath)
		post, err := a.Feed.ToggleLike(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Fprint(out, p.Post(post))
		return nil

	case "profile":
		userID := ""
		if len(rest) > 0 {
			userID = rest[0]
		}
		a.Router.Navigate(profilePath)
		user, err := a.Profile.Get(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Fprint(out, p.Profile(user))
		return nil

	case "profile-update":
		fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
		fullName := fs.String("full-name", "", "display name")
		bio := fs.String("bio", "", "short bio")
		username := fs.String("username", "", "user name")
		image := fs.String("image-url", "", "avatar URL")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		var change models.ProfileUpdate
		if fs.Changed("full-name") {
			change.FullName = fullName
		}
		if fs.Changed("bio") {
			change.Bio = bio
		}
		if fs.Changed("username") {
			change.Username = username
		}
		if fs.Changed("image-url") {
			change.ProfileImage = image
		}
		a.Router.Navigate(profilePath)
		user, err := a.Profile.Update(ctx, change)
		if err != nil {
			return err
		}
		fmt.Fprint(out, p.Profile(user))
		return nil

	default:
		fmt.Fprintf(out, "unknown command %q\n", name)
		return errUsage
	}
}
