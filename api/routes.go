/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式；身份由网关通过请求头传入
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs service/init.go, api/controllers
 */

package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"dynconfig-service/api/controllers"
	identity "dynconfig-service/api/middleware"
	"dynconfig-service/service"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", identity.HeaderUserID, identity.HeaderUserRole},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(identity.Identity)

	// 健康检查
	healthController := controllers.NewHealthController(func(ctx context.Context) error {
		sqlDB, err := service.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	definitionController := controllers.NewDefinitionController(service.GlobalDefinitionStore)
	tableController := controllers.NewTableController(
		service.GlobalDefinitionStore,
		service.GlobalQueryEngine,
		service.GlobalViewService,
		service.GlobalFormatter,
		service.GlobalExportService,
	)
	viewController := controllers.NewViewController(service.GlobalViewService)
	formController := controllers.NewFormController(service.GlobalFormService)
	reportController := controllers.NewReportController(service.GlobalReportGenerator)
	scheduleController := controllers.NewScheduleController(service.GlobalScheduleService)
	exportLimit := identity.RateLimit(service.GlobalRateLimiter, "export", service.Config.Export.RateLimit)

	// 定义包导入
	r.Post("/definitions/import", definitionController.ImportBundle)

	// 表格定义与数据
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", definitionController.ListTables)
		r.Post("/", definitionController.CreateTable)

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", definitionController.GetTable)
			r.Put("/", definitionController.UpdateTable)
			r.Delete("/", definitionController.DeleteTable)

			r.Get("/data", tableController.GetData)
			r.Post("/data", tableController.QueryData)
			r.With(exportLimit).Post("/export", tableController.Export)

			// 保存视图
			r.Route("/views", func(r chi.Router) {
				r.Get("/", viewController.List)
				r.Post("/", viewController.Create)
				r.Put("/{id}", viewController.Update)
				r.Delete("/{id}", viewController.Delete)
				r.Post("/{id}/default", viewController.SetDefault)
			})
		})
	})

	// 表单定义与提交
	r.Route("/forms", func(r chi.Router) {
		r.Get("/", definitionController.ListForms)
		r.Post("/", definitionController.CreateForm)

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", definitionController.GetForm)
			r.Put("/", definitionController.UpdateForm)
			r.Delete("/", definitionController.DeleteForm)

			r.Post("/layout", formController.Layout)
			r.Get("/rules", formController.Rules)
			r.Get("/submissions", formController.ListSubmissions)
			r.Post("/submissions", formController.Submit)
		})
	})

	// 提交审批
	r.Route("/submissions/{id}", func(r chi.Router) {
		r.Get("/", formController.GetSubmission)
		r.Post("/{action}", formController.Act)
	})

	// 报表定义、生成与定时任务
	r.Route("/reports", func(r chi.Router) {
		r.Get("/", definitionController.ListReports)
		r.Post("/", definitionController.CreateReport)

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", definitionController.GetReport)
			r.Put("/", definitionController.UpdateReport)
			r.Delete("/", definitionController.DeleteReport)

			r.Post("/parameters", reportController.Parameters)
			r.With(exportLimit).Post("/generate", reportController.Generate)
			r.With(exportLimit).Post("/export", reportController.Export)

			r.Get("/schedules", scheduleController.List)
			r.Post("/schedules", scheduleController.Create)
		})
	})

	r.Route("/schedules/{id}", func(r chi.Router) {
		r.Get("/", scheduleController.Get)
		r.Put("/", scheduleController.Update)
		r.Delete("/", scheduleController.Delete)
		r.Post("/toggle", scheduleController.Toggle)
		r.Post("/run", scheduleController.Run)
	})
}
