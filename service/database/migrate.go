/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建和更新配置引擎的表结构
 * @architecture 数据访问层 - 迁移管理
 * @stateFlow 应用启动时执行数据库迁移
 * @rules 确保数据库结构与模型定义保持一致；记录源中的业务表不在此迁移
 * @dependencies dynconfig-service/service/models, gorm.io/gorm
 * @refs service/init.go, testutil/test_helper.go
 */

package database

import (
	"log"

	"gorm.io/gorm"

	"dynconfig-service/service/models"
)

// Models 需要迁移的全部模型，按依赖顺序排列
func Models() []interface{} {
	return []interface{}{
		// 表格定义
		&models.TableDefinition{},
		&models.ColumnDefinition{},
		&models.FilterDefinition{},
		&models.ViewDefinition{},
		// 表单定义与提交
		&models.FormDefinition{},
		&models.SectionDefinition{},
		&models.FieldDefinition{},
		&models.FormSubmission{},
		// 报表定义与定时任务
		&models.ReportDefinition{},
		&models.ReportField{},
		&models.ReportParameter{},
		&models.ReportChart{},
		&models.ReportSchedule{},
	}
}

// singleDefaultViewIndex 每个 (表格, 用户) 至多一个默认视图
const singleDefaultViewIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_view_single_default
	ON view_definitions (table_definition_id, user_id) WHERE is_default`

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	log.Println("开始数据库迁移...")
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	if err := db.Exec(singleDefaultViewIndex).Error; err != nil {
		return err
	}
	log.Println("数据库迁移完成")
	return nil
}
