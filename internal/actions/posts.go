package actions

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"vibeclient/internal/gateway"
	"vibeclient/internal/models"
	"vibeclient/internal/store"
)

// Image is an optional attachment to a new post.
type Image struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// Posts covers the feed: fetching it, posting to it and liking in it.
type Posts struct {
	api     API
	session Session
	store   *store.PostStore
	reporter

	feed   Tracker
	create Tracker
	like   Tracker
}

// NewPosts wires the feed hooks to the shared post store. notify may be nil.
func NewPosts(api API, session Session, posts *store.PostStore, notify Notifier) *Posts {
	return &Posts{
		api:      api,
		session:  session,
		store:    posts,
		reporter: newReporter("posts", notify),
	}
}

// FeedState is the fetch-feed hook state.
func (p *Posts) FeedState() State { return p.feed.State() }

// CreateState is the create-post hook state.
func (p *Posts) CreateState() State { return p.create.State() }

// LikeState is the toggle-like hook state.
func (p *Posts) LikeState() State { return p.like.State() }

// FetchFeed replaces the store's items with the server feed. Without a
// session it fails before any request is made. When a newer fetch was
// started while this one was in flight, the store is left to the newer one
// and the current items are returned.
func (p *Posts) FetchFeed(ctx context.Context) (_ []models.Post, err error) {
	p.feed.begin()
	defer func() { p.feed.end(err) }()

	if p.session.Token() == "" {
		return nil, p.failStore(ctx, "fetch_feed", models.NewSessionError(), models.MsgNoSession)
	}

	p.store.SetLoading(true)
	defer p.store.SetLoading(false)

	ticket := p.store.BeginFetch()
	resp, err := p.api.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/posts"})
	if err != nil {
		return nil, p.failStore(ctx, "fetch_feed", err, "Failed to load posts")
	}

	items, err := models.DecodeEnvelope[[]models.Post](resp.Body)
	if err != nil {
		return nil, p.failStore(ctx, "fetch_feed", err, "Failed to load posts")
	}

	switch p.store.CompleteFetch(ticket, items) {
	case store.Applied:
		p.store.ClearError()
		return items, nil
	case store.Stale:
		p.log.Debug(ctx, "superseded feed fetch dropped")
		return p.store.Snapshot().Items, nil
	default:
		return nil, p.failStore(ctx, "fetch_feed",
			models.NewFormatError(errors.New("feed contains posts without id or with repeated ids")),
			"Failed to load posts")
	}
}

// CreatePost publishes content, as multipart when img is set, and puts the
// new post at the top of the feed.
func (p *Posts) CreatePost(ctx context.Context, content string, img *Image) (_ models.Post, err error) {
	p.create.begin()
	defer func() { p.create.end(err) }()

	p.store.SetLoading(true)
	defer p.store.SetLoading(false)

	req := gateway.Request{Method: http.MethodPost, Path: "/posts"}
	if img != nil {
		req.Form = &gateway.Multipart{
			Fields: map[string]string{"content": content},
			File: &gateway.FilePart{
				Field:       "image",
				Filename:    img.Filename,
				ContentType: img.ContentType,
				Content:     img.Content,
			},
		}
	} else {
		req.Body = models.CreatePostRequest{Content: content}
	}

	resp, err := p.api.Do(ctx, req)
	if err != nil {
		return models.Post{}, p.failStore(ctx, "create_post", err, "Failed to create post")
	}

	post, err := models.DecodeEnvelope[models.Post](resp.Body)
	if err != nil {
		return models.Post{}, p.failStore(ctx, "create_post", err, "Failed to create post")
	}
	post.Liked = false

	if o := p.store.Prepend(post); !o.OK() {
		p.log.Info(ctx, "created post not added to feed",
			slog.String("post_id", post.ID),
			slog.String("outcome", o.String()),
		)
	}
	p.store.ClearError()
	p.success("Post created")
	return post, nil
}

// ToggleLike flips the caller's like on postID. The like state and count
// the server reports win; a field the server leaves out is derived from the
// local copy. A post missing from the store is not added to it.
func (p *Posts) ToggleLike(ctx context.Context, postID string) (_ models.Post, err error) {
	p.like.begin()
	defer func() { p.like.end(err) }()

	if postID == "" {
		return models.Post{}, p.fail(ctx, "toggle_like", models.NewValidationError("Post id is required"), "Failed to update like")
	}

	p.store.SetLoading(true)
	defer p.store.SetLoading(false)

	resp, err := p.api.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/posts/" + url.PathEscape(postID) + "/like",
		Route:  "/posts/:id/like",
	})
	if err != nil {
		return models.Post{}, p.failStore(ctx, "toggle_like", err, "Failed to update like")
	}

	result, err := models.DecodeEnvelope[models.LikeResult](resp.Body)
	if err != nil {
		return models.Post{}, p.failStore(ctx, "toggle_like", err, "Failed to update like")
	}

	updated, outcome := p.store.Update(postID, func(cur models.Post) models.Post {
		return applyLike(cur, result)
	})
	if outcome != store.Applied {
		p.log.Info(ctx, "liked post is not in the feed",
			slog.String("post_id", postID),
			slog.String("outcome", outcome.String()),
		)
		return applyLike(models.Post{ID: postID}, result), nil
	}
	return updated, nil
}

func applyLike(cur models.Post, result models.LikeResult) models.Post {
	liked := !cur.Liked
	if result.Liked != nil {
		liked = *result.Liked
	}
	next := cur.WithLike(liked)
	if result.LikeCount != nil {
		next.LikeCount = *result.LikeCount
	}
	return next
}

func (p *Posts) failStore(ctx context.Context, op string, err error, fallback string) *models.AppError {
	appErr := p.fail(ctx, op, err, fallback)
	p.store.SetError(appErr.Message)
	return appErr
}
