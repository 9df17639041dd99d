package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dynconfig-service/service/models"
	"dynconfig-service/service/scheduler"
)

// ScheduleController 报表定时任务控制器
type ScheduleController struct {
	schedules *scheduler.ScheduleService
}

// NewScheduleController 创建报表定时任务控制器
func NewScheduleController(schedules *scheduler.ScheduleService) *ScheduleController {
	return &ScheduleController{schedules: schedules}
}

// List 获取报表的定时任务
// @Summary 获取报表定时任务列表
// @Tags 定时任务
// @Produce json
// @Param code path string true "报表编码"
// @Success 200 {object} APIResponse{data=[]models.ReportSchedule}
// @Router /reports/{code}/schedules [get]
func (c *ScheduleController) List(w http.ResponseWriter, r *http.Request) {
	items, err := c.schedules.List(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取定时任务列表成功", items))
}

// Create 创建定时任务
// @Summary 创建定时任务
// @Tags 定时任务
// @Accept json
// @Produce json
// @Param code path string true "报表编码"
// @Param request body models.ReportSchedule true "定时任务"
// @Success 201 {object} APIResponse{data=models.ReportSchedule}
// @Failure 400 {object} APIResponse
// @Router /reports/{code}/schedules [post]
func (c *ScheduleController) Create(w http.ResponseWriter, r *http.Request) {
	var sched models.ReportSchedule
	if err := render.DecodeJSON(r.Body, &sched); err != nil {
		badJSON(w, r, err)
		return
	}
	if err := c.schedules.Create(r.Context(), chi.URLParam(r, "code"), &sched); err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SuccessResponse("创建定时任务成功", &sched))
}

// Get 获取定时任务
// @Summary 获取定时任务
// @Tags 定时任务
// @Produce json
// @Param id path string true "定时任务ID"
// @Success 200 {object} APIResponse{data=models.ReportSchedule}
// @Router /schedules/{id} [get]
func (c *ScheduleController) Get(w http.ResponseWriter, r *http.Request) {
	sched, err := c.schedules.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取定时任务成功", sched))
}

// Update 更新定时任务
// @Summary 更新定时任务
// @Tags 定时任务
// @Accept json
// @Produce json
// @Param id path string true "定时任务ID"
// @Param request body models.ReportSchedule true "定时任务"
// @Success 200 {object} APIResponse{data=models.ReportSchedule}
// @Router /schedules/{id} [put]
func (c *ScheduleController) Update(w http.ResponseWriter, r *http.Request) {
	var sched models.ReportSchedule
	if err := render.DecodeJSON(r.Body, &sched); err != nil {
		badJSON(w, r, err)
		return
	}
	updated, err := c.schedules.Update(r.Context(), chi.URLParam(r, "id"), &sched)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("更新定时任务成功", updated))
}

// Delete 删除定时任务
// @Summary 删除定时任务
// @Tags 定时任务
// @Produce json
// @Param id path string true "定时任务ID"
// @Success 200 {object} APIResponse
// @Router /schedules/{id} [delete]
func (c *ScheduleController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.schedules.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("删除定时任务成功", nil))
}

// Toggle 启用/停用定时任务
// @Summary 启用或停用定时任务
// @Tags 定时任务
// @Produce json
// @Param id path string true "定时任务ID"
// @Success 200 {object} APIResponse{data=models.ReportSchedule}
// @Router /schedules/{id}/toggle [post]
func (c *ScheduleController) Toggle(w http.ResponseWriter, r *http.Request) {
	sched, err := c.schedules.Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("定时任务状态已切换", sched))
}

// Run 立即执行定时任务
// @Summary 立即执行定时任务
// @Description 同步执行一次，不改变下次执行时间；执行失败时返回错误并记录在任务上
// @Tags 定时任务
// @Produce json
// @Param id path string true "定时任务ID"
// @Success 200 {object} APIResponse{data=models.ReportSchedule}
// @Router /schedules/{id}/run [post]
func (c *ScheduleController) Run(w http.ResponseWriter, r *http.Request) {
	sched, err := c.schedules.RunNow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, SuccessResponse("定时任务执行成功", sched))
}
