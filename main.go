package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"dynconfig-service/api"
	_ "dynconfig-service/docs"
	"dynconfig-service/service"
)

// @title 动态配置引擎 API
// @version 1.0
// @description 教务管理后台动态配置服务：由定义驱动的表格、表单、报表，以及保存视图、导出与定时报表
// @BasePath /
func main() {
	port := service.Config.Server.Port
	baseContext := service.Config.Server.BaseContext

	mux := chi.NewRouter()

	// 如果有BASE_CONTEXT，则在该路径下挂载所有路由
	if baseContext != "" {
		mux.Route(baseContext, func(r chi.Router) {
			subMux := r.(*chi.Mux)
			api.InitRoute(subMux)
			r.Handle("/metrics", promhttp.Handler())
			r.Handle("/swagger*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux)
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/swagger*", httpSwagger.WrapHandler)
	}

	s := daprd.NewServiceWithMux(":"+strconv.Itoa(port), mux)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("收到退出信号，正在停止服务")
		if err := s.GracefulStop(); err != nil {
			log.Printf("停止HTTP服务失败: %v", err)
		}
	}()

	log.Printf("服务启动，监听端口 %d", port)
	if err := s.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("error: %v", err)
	}
	service.Shutdown()
}
