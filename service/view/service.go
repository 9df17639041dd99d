/*
 * @module service/view/service
 * @description 用户保存视图：列显示/顺序/宽度、筛选、排序、每页条数
 * @architecture 仓储 + 服务 - GORM 持久化，按 (表格, 用户) 归属
 * @stateFlow 保存 -> 设为默认/共享 -> 应用到查询请求 -> 删除
 * @rules
 *   - 同一 (用户, 表格) 最多一个默认视图：切换默认在单个事务中行锁完成，部分唯一索引兜底
 *   - 只有创建者可以修改、删除、设为默认；共享视图对其他用户只读
 *   - 视图中的排序与筛选在应用时重新经过查询白名单校验
 * @dependencies gorm.io/gorm, service/query
 * @refs service/models/view_definition.go, api/controllers/view_controller.go
 */

package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dynconfig-service/service/models"
	"dynconfig-service/service/query"
)

var (
	// ErrViewNotFound 视图不存在或不可见
	ErrViewNotFound = errors.New("视图不存在")
	// ErrInvalidView 视图内容无效
	ErrInvalidView = errors.New("视图无效")
)

// Service 视图服务
type Service struct {
	db     *gorm.DB
	tables query.TableLoader
}

// NewService 创建视图服务
func NewService(db *gorm.DB, tables query.TableLoader) *Service {
	return &Service{db: db, tables: tables}
}

// List 用户自己的视图与他人共享的视图，默认视图排在最前
func (s *Service) List(ctx context.Context, tableCode, userID string) ([]models.ViewDefinition, error) {
	table, err := s.tables.GetTable(ctx, tableCode)
	if err != nil {
		return nil, err
	}
	var views []models.ViewDefinition
	err = s.db.WithContext(ctx).
		Where("table_definition_id = ? AND (user_id = ? OR is_shared = ?)", table.ID, userID, true).
		Order("name ASC").
		Find(&views).Error
	if err != nil {
		return nil, fmt.Errorf("查询视图失败: %w", err)
	}
	sortViews(views, userID)
	return views, nil
}

// Get 获取用户可见的视图
func (s *Service) Get(ctx context.Context, tableCode, id, userID string) (*models.ViewDefinition, error) {
	table, err := s.tables.GetTable(ctx, tableCode)
	if err != nil {
		return nil, err
	}
	var v models.ViewDefinition
	err = s.db.WithContext(ctx).
		Where("id = ? AND table_definition_id = ? AND (user_id = ? OR is_shared = ?)", id, table.ID, userID, true).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrViewNotFound)
		}
		return nil, fmt.Errorf("查询视图失败: %w", err)
	}
	return &v, nil
}

// DefaultFor 用户在表格上的默认视图
func (s *Service) DefaultFor(ctx context.Context, tableCode, userID string) (*models.ViewDefinition, error) {
	table, err := s.tables.GetTable(ctx, tableCode)
	if err != nil {
		return nil, err
	}
	var v models.ViewDefinition
	err = s.db.WithContext(ctx).
		Where("table_definition_id = ? AND user_id = ? AND is_default = ?", table.ID, userID, true).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s 没有默认视图: %w", tableCode, ErrViewNotFound)
		}
		return nil, fmt.Errorf("查询默认视图失败: %w", err)
	}
	return &v, nil
}

// Save 保存新视图
func (s *Service) Save(ctx context.Context, tableCode, userID string, v *models.ViewDefinition) error {
	table, err := s.tables.GetTable(ctx, tableCode)
	if err != nil {
		return err
	}
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("%w: 名称不能为空", ErrInvalidView)
	}
	v.ID = ""
	v.TableDefinitionID = table.ID
	v.UserID = userID
	sanitize(table, v)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if v.IsDefault {
			if err := clearDefault(tx, table.ID, userID); err != nil {
				return err
			}
		}
		return tx.Create(v).Error
	})
	if err != nil {
		return fmt.Errorf("保存视图失败: %w", err)
	}
	slog.Info("视图已保存", "table", tableCode, "user", userID, "view", v.ID, "default", v.IsDefault)
	return nil
}

// Update 更新自己的视图
func (s *Service) Update(ctx context.Context, tableCode, id, userID string, v *models.ViewDefinition) (*models.ViewDefinition, error) {
	table, err := s.tables.GetTable(ctx, tableCode)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(v.Name) == "" {
		return nil, fmt.Errorf("%w: 名称不能为空", ErrInvalidView)
	}
	sanitize(table, v)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := owned(tx, table.ID, id, userID)
		if err != nil {
			return err
		}
		v.ID = existing.ID
		v.TableDefinitionID = existing.TableDefinitionID
		v.UserID = existing.UserID
		v.CreatedAt = existing.CreatedAt
		if v.IsDefault && !existing.IsDefault {
			if err := clearDefault(tx, table.ID, userID); err != nil {
				return err
			}
		}
		return tx.Save(v).Error
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Delete 删除自己的视图
func (s *Service) Delete(ctx context.Context, tableCode, id, userID string) error {
	table, err := s.tables.GetTable(ctx, tableCode)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := owned(tx, table.ID, id, userID)
		if err != nil {
			return err
		}
		return tx.Delete(existing).Error
	})
}

// SetDefault 设为默认视图：先清除同一 (用户, 表格) 的默认标记再设置，整体在一个事务中
func (s *Service) SetDefault(ctx context.Context, tableCode, id, userID string) (*models.ViewDefinition, error) {
	table, err := s.tables.GetTable(ctx, tableCode)
	if err != nil {
		return nil, err
	}
	var result *models.ViewDefinition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := owned(tx, table.ID, id, userID)
		if err != nil {
			return err
		}
		if err := clearDefault(tx, table.ID, userID); err != nil {
			return err
		}
		if err := tx.Model(existing).Update("is_default", true).Error; err != nil {
			return err
		}
		existing.IsDefault = true
		result = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("默认视图已切换", "table", tableCode, "user", userID, "view", id)
	return result, nil
}

func owned(tx *gorm.DB, tableID, id, userID string) (*models.ViewDefinition, error) {
	var v models.ViewDefinition
	err := tx.Where("id = ? AND table_definition_id = ? AND user_id = ?", id, tableID, userID).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrViewNotFound)
		}
		return nil, err
	}
	return &v, nil
}

// clearDefault 先锁住该用户在此表格上的全部视图，并发的默认切换在这里串行
func clearDefault(tx *gorm.DB, tableID, userID string) error {
	var locked []models.ViewDefinition
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("table_definition_id = ? AND user_id = ?", tableID, userID).
		Find(&locked).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.ViewDefinition{}).
		Where("table_definition_id = ? AND user_id = ? AND is_default = ?", tableID, userID, true).
		Update("is_default", false).Error
}
