package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dynconfig-service/api/middleware"
	"dynconfig-service/service/models"
	"dynconfig-service/service/view"
)

// ViewController 保存视图控制器
type ViewController struct {
	views *view.Service
}

// NewViewController 创建保存视图控制器
func NewViewController(views *view.Service) *ViewController {
	return &ViewController{views: views}
}

// List 获取用户可见的视图
// @Summary 获取保存视图列表
// @Description 返回自己的视图与他人共享的视图，默认视图在最前
// @Tags 保存视图
// @Produce json
// @Param code path string true "表格编码"
// @Success 200 {object} APIResponse{data=[]models.ViewDefinition}
// @Router /tables/{code}/views [get]
func (c *ViewController) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserInfo(r.Context())
	views, err := c.views.List(r.Context(), chi.URLParam(r, "code"), user.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取视图列表成功", views))
}

// Create 保存新视图
// @Summary 保存视图
// @Tags 保存视图
// @Accept json
// @Produce json
// @Param code path string true "表格编码"
// @Param request body models.ViewDefinition true "视图"
// @Success 201 {object} APIResponse{data=models.ViewDefinition}
// @Router /tables/{code}/views [post]
func (c *ViewController) Create(w http.ResponseWriter, r *http.Request) {
	var v models.ViewDefinition
	if err := render.DecodeJSON(r.Body, &v); err != nil {
		badJSON(w, r, err)
		return
	}
	user := middleware.GetUserInfo(r.Context())
	if err := c.views.Save(r.Context(), chi.URLParam(r, "code"), user.UserID, &v); err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("保存视图成功", &v))
}

// Update 更新自己的视图
// @Summary 更新视图
// @Tags 保存视图
// @Accept json
// @Produce json
// @Param code path string true "表格编码"
// @Param id path string true "视图ID"
// @Param request body models.ViewDefinition true "视图"
// @Success 200 {object} APIResponse{data=models.ViewDefinition}
// @Router /tables/{code}/views/{id} [put]
func (c *ViewController) Update(w http.ResponseWriter, r *http.Request) {
	var v models.ViewDefinition
	if err := render.DecodeJSON(r.Body, &v); err != nil {
		badJSON(w, r, err)
		return
	}
	user := middleware.GetUserInfo(r.Context())
	updated, err := c.views.Update(r.Context(), chi.URLParam(r, "code"), chi.URLParam(r, "id"), user.UserID, &v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("更新视图成功", updated))
}

// Delete 删除自己的视图
// @Summary 删除视图
// @Tags 保存视图
// @Produce json
// @Param code path string true "表格编码"
// @Param id path string true "视图ID"
// @Success 200 {object} APIResponse
// @Router /tables/{code}/views/{id} [delete]
func (c *ViewController) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserInfo(r.Context())
	if err := c.views.Delete(r.Context(), chi.URLParam(r, "code"), chi.URLParam(r, "id"), user.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("删除视图成功", nil))
}

// SetDefault 设为默认视图
// @Summary 设为默认视图
// @Tags 保存视图
// @Produce json
// @Param code path string true "表格编码"
// @Param id path string true "视图ID"
// @Success 200 {object} APIResponse{data=models.ViewDefinition}
// @Router /tables/{code}/views/{id}/default [post]
func (c *ViewController) SetDefault(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserInfo(r.Context())
	v, err := c.views.SetDefault(r.Context(), chi.URLParam(r, "code"), chi.URLParam(r, "id"), user.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("默认视图设置成功", v))
}
