package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

// PostController serves listings, post detail, comments and the post forms.
type PostController struct {
	posts    *services.PostService
	comments *services.CommentService
	groups   *services.GroupService
	follows  *services.FollowService
	images   *utils.ImageStore
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, comments *services.CommentService, groups *services.GroupService, follows *services.FollowService, images *utils.ImageStore) *PostController {
	return &PostController{posts: posts, comments: comments, groups: groups, follows: follows, images: images}
}

type postForm struct {
	Text       string `form:"text" json:"text"`
	Group      string `form:"group" json:"group"`
	ImageClear bool   `form:"image_clear" json:"image_clear"`
}

type commentForm struct {
	Text string `form:"text" json:"text" binding:"required"`
}

// Index lists every post, newest first.
func (p *PostController) Index(ctx *gin.Context) {
	page, err := p.posts.List(ctx.Request.Context(), ctx.Query("page"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"page": page})
}

// GroupPosts lists the posts of one group.
func (p *PostController) GroupPosts(ctx *gin.Context) {
	group, page, err := p.posts.ListByGroup(ctx.Request.Context(), ctx.Param("slug"), ctx.Query("page"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"group": group, "page": page})
}

// Profile lists the posts of one author together with the follower numbers.
func (p *PostController) Profile(ctx *gin.Context) {
	rc := ctx.Request.Context()
	author, page, err := p.posts.ListByAuthor(rc, ctx.Param("username"), ctx.Query("page"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	following := false
	if userID, ok := getUserID(ctx); ok {
		if following, err = p.follows.IsFollowing(rc, userID, author.ID); err != nil {
			respondError(ctx, err)
			return
		}
	}
	followers, followees, err := p.follows.Counts(rc, author.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{
		"author":          author,
		"page":            page,
		"following":       following,
		"posts_count":     page.Total,
		"followers_count": followers,
		"following_count": followees,
	})
}

func (p *PostController) loadPost(ctx *gin.Context) (*models.Post, bool) {
	postID, ok := parseID(ctx, "post_id")
	if !ok {
		notFound(ctx)
		return nil, false
	}
	post, err := p.posts.Get(ctx.Request.Context(), ctx.Param("username"), postID)
	if err != nil {
		respondError(ctx, err)
		return nil, false
	}
	return post, true
}

// PostDetail shows one post, its comments and an empty comment form.
func (p *PostController) PostDetail(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	comments, err := p.comments.ListForPost(ctx.Request.Context(), post.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post, "comments": comments, "form": gin.H{"text": ""}})
}

// AddComment attaches a comment by the requester and returns to the post.
func (p *PostController) AddComment(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	userID, _ := getUserID(ctx)

	var form commentForm
	if err := ctx.ShouldBind(&form); err != nil {
		p.rejectComment(ctx, post, form.Text, bindErrors(err))
		return
	}
	if _, err := p.comments.Create(ctx.Request.Context(), userID, post.ID, utils.Sanitize(form.Text)); err != nil {
		if fields, ok := services.AsValidation(err); ok {
			p.rejectComment(ctx, post, form.Text, fields)
			return
		}
		respondError(ctx, err)
		return
	}

	utils.Redirect(ctx, postURL(post.Author.Username, post.ID))
}

func (p *PostController) rejectComment(ctx *gin.Context, post *models.Post, text string, fields services.FieldErrors) {
	comments, err := p.comments.ListForPost(ctx.Request.Context(), post.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Invalid(ctx, 40010, gin.H{"post": post, "comments": comments, "form": gin.H{"text": text}}, fields)
}

// NewPostForm returns an empty post form and the groups a post may join.
func (p *PostController) NewPostForm(ctx *gin.Context) {
	groups, err := p.groups.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"form": gin.H{"text": "", "group": nil}, "groups": groups, "is_edit": false})
}

// CreatePost publishes a post by the requester and returns to the index.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	rc := ctx.Request.Context()

	in, form, fields := p.cleanForm(ctx)
	if len(fields) > 0 {
		p.rejectPost(ctx, nil, form, fields)
		return
	}

	if _, err := p.posts.Create(rc, userID, in); err != nil {
		_ = p.images.Remove(in.Image)
		if fields, ok := services.AsValidation(err); ok {
			p.rejectPost(ctx, nil, form, fields)
			return
		}
		respondError(ctx, err)
		return
	}

	utils.Redirect(ctx, "/")
}

// EditPostForm returns the post form prefilled with the current values.
func (p *PostController) EditPostForm(ctx *gin.Context) {
	post, ok := p.editablePost(ctx)
	if !ok {
		return
	}
	groups, err := p.groups.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"form":    gin.H{"text": post.Text, "group": post.GroupID, "image": post.Image},
		"post":    post,
		"groups":  groups,
		"is_edit": true,
	})
}

// EditPost rewrites text, group and image of the requester's own post.
func (p *PostController) EditPost(ctx *gin.Context) {
	post, ok := p.editablePost(ctx)
	if !ok {
		return
	}
	userID, _ := getUserID(ctx)
	oldImage := post.Image

	in, form, fields := p.cleanForm(ctx)
	if len(fields) > 0 {
		p.rejectPost(ctx, post, form, fields)
		return
	}

	updated, err := p.posts.Update(ctx.Request.Context(), userID, post, in)
	if err != nil {
		_ = p.images.Remove(in.Image)
		if errors.Is(err, services.ErrPermissionDenied) {
			utils.Redirect(ctx, "/")
			return
		}
		if fields, ok := services.AsValidation(err); ok {
			p.rejectPost(ctx, post, form, fields)
			return
		}
		respondError(ctx, err)
		return
	}
	if oldImage != "" && updated.Image != oldImage {
		if err := p.images.Remove(oldImage); err != nil {
			utils.Sugar.Warnw("removing replaced image failed", "image", oldImage, "err", err)
		}
	}

	utils.Redirect(ctx, postURL(updated.Author.Username, updated.ID))
}

// editablePost loads the addressed post and sends anyone but its author back to the index.
func (p *PostController) editablePost(ctx *gin.Context) (*models.Post, bool) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return nil, false
	}
	userID, _ := getUserID(ctx)
	if err := services.Authorize(post, userID); err != nil {
		utils.Redirect(ctx, "/")
		return nil, false
	}
	return post, true
}

// cleanForm binds and validates a post form. The image is stored only once
// every other field is valid, so a rejected form leaves no file behind.
func (p *PostController) cleanForm(ctx *gin.Context) (services.PostInput, postForm, services.FieldErrors) {
	var form postForm
	if err := ctx.ShouldBind(&form); err != nil {
		return services.PostInput{}, form, bindErrors(err)
	}
	in, fields := p.posts.Clean(ctx.Request.Context(), utils.Sanitize(form.Text), form.Group)
	in.ClearImage = form.ImageClear
	if len(fields) > 0 {
		return in, form, fields
	}

	file, err := ctx.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, form, fields
	case err != nil:
		fields.Add("image", "upload a valid image")
		return in, form, fields
	}
	if file.Size > utils.MaxImageSize {
		fields.Add("image", utils.ErrImageTooLarge.Error())
		return in, form, fields
	}
	f, err := file.Open()
	if err != nil {
		fields.Add("image", "upload a valid image")
		return in, form, fields
	}
	defer f.Close()

	if in.Image, err = p.images.Save(f); err != nil {
		switch {
		case errors.Is(err, utils.ErrNotAnImage), errors.Is(err, utils.ErrImageTooLarge):
			fields.Add("image", err.Error())
		default:
			utils.Sugar.Errorw("saving image failed", "err", err)
			fields.Add("image", "could not store the image")
		}
	}
	return in, form, fields
}

func (p *PostController) rejectPost(ctx *gin.Context, post *models.Post, form postForm, fields services.FieldErrors) {
	groups, err := p.groups.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	data := gin.H{
		"form":    gin.H{"text": form.Text, "group": form.Group},
		"groups":  groups,
		"is_edit": post != nil,
	}
	if post != nil {
		data["post"] = post
	}
	utils.Invalid(ctx, 40020, data, fields)
}

// FollowIndex lists the posts of every author the requester follows.
func (p *PostController) FollowIndex(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	page, err := p.posts.Feed(ctx.Request.Context(), userID, ctx.Query("page"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"page": page})
}

// ProfileFollow subscribes the requester to an author. Following yourself or
// following twice changes nothing.
func (p *PostController) ProfileFollow(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	username := ctx.Param("username")
	if _, err := p.follows.Follow(ctx.Request.Context(), userID, username); err != nil && !errors.Is(err, services.ErrSelfFollow) {
		respondError(ctx, err)
		return
	}
	utils.Redirect(ctx, profileURL(username))
}

// ProfileUnfollow drops the subscription if there is one.
func (p *PostController) ProfileUnfollow(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	username := ctx.Param("username")
	if _, err := p.follows.Unfollow(ctx.Request.Context(), userID, username); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Redirect(ctx, profileURL(username))
}
