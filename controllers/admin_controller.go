package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

// AdminController exposes group management and post removal to administrators.
type AdminController struct {
	groups *services.GroupService
	posts  *services.PostService
	images *utils.ImageStore
}

// NewAdminController creates an AdminController.
func NewAdminController(groups *services.GroupService, posts *services.PostService, images *utils.ImageStore) *AdminController {
	return &AdminController{groups: groups, posts: posts, images: images}
}

type groupForm struct {
	Title       string `form:"title" json:"title" binding:"required,max=200"`
	Description string `form:"description" json:"description" binding:"required"`
	Slug        string `form:"slug" json:"slug"`
}

func (f groupForm) input() services.GroupInput {
	return services.GroupInput{Title: f.Title, Description: f.Description, Slug: f.Slug}
}

// ListGroups returns every group.
func (a *AdminController) ListGroups(ctx *gin.Context) {
	groups, err := a.groups.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"groups": groups})
}

// CreateGroup adds a group.
func (a *AdminController) CreateGroup(ctx *gin.Context) {
	var form groupForm
	if err := ctx.ShouldBind(&form); err != nil {
		utils.Invalid(ctx, 40030, gin.H{"form": form}, bindErrors(err))
		return
	}
	group, err := a.groups.Create(ctx.Request.Context(), form.input())
	if err != nil {
		if fields, ok := services.AsValidation(err); ok {
			utils.Invalid(ctx, 40030, gin.H{"form": form}, fields)
			return
		}
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"group": group})
}

// UpdateGroup changes title and description of a group.
func (a *AdminController) UpdateGroup(ctx *gin.Context) {
	var form groupForm
	if err := ctx.ShouldBind(&form); err != nil {
		utils.Invalid(ctx, 40031, gin.H{"form": form}, bindErrors(err))
		return
	}
	group, err := a.groups.Update(ctx.Request.Context(), ctx.Param("slug"), form.input())
	if err != nil {
		if fields, ok := services.AsValidation(err); ok {
			utils.Invalid(ctx, 40031, gin.H{"form": form}, fields)
			return
		}
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"group": group})
}

// DeleteGroup removes a group no post belongs to.
func (a *AdminController) DeleteGroup(ctx *gin.Context) {
	if err := a.groups.Delete(ctx.Request.Context(), ctx.Param("slug")); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "group deleted"})
}

// DeletePost removes a post, its comments and its image.
func (a *AdminController) DeletePost(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		notFound(ctx)
		return
	}
	post, err := a.posts.Delete(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if err := a.images.Remove(post.Image); err != nil {
		utils.Sugar.Warnw("removing image of deleted post failed", "image", post.Image, "err", err)
	}
	utils.Success(ctx, gin.H{"message": "post deleted"})
}
