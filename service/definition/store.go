/*
 * @module service/definition/store
 * @description 定义存储：表格/表单/报表定义的读取、列表、创建、更新、删除
 * @architecture 仓储模式 - GORM 持久化 + 可替换缓存
 * @stateFlow
 *   创建: 校验 -> 编码查重 -> 事务写入主表与子表
 *   更新: 校验 -> 事务内删除旧子表、写入新子表、版本号+1 -> 失效缓存
 *   删除: 事务内删除子表、关联视图/定时任务、主表 -> 失效缓存
 * @rules
 *   - 编码创建后不可修改
 *   - 读路径假定定义已通过写入校验
 *   - 找不到定义时返回包装了 ErrDefinitionNotFound 的错误
 * @dependencies gorm.io/gorm, service/monitoring
 * @refs validate.go, cache.go, bundle.go
 */

package definition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dynconfig-service/service/models"
	"dynconfig-service/service/monitoring"
)

const (
	kindTable  = "table"
	kindForm   = "form"
	kindReport = "report"
)

// ListFilter 定义列表筛选
type ListFilter struct {
	Search   string `json:"search"`
	IsActive *bool  `json:"is_active"`
	Page     int    `json:"page"`
	Size     int    `json:"size"`
}

func (f ListFilter) normalized() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 {
		f.Size = 20
	}
	if f.Size > 100 {
		f.Size = 100
	}
	return f
}

// Store 定义存储
type Store struct {
	db    *gorm.DB
	cache Cache
	ttl   time.Duration
}

// NewStore 创建定义存储，cache 为 nil 时不缓存
func NewStore(db *gorm.DB, cache Cache, ttl time.Duration) *Store {
	if cache == nil {
		cache = NopCache{}
	}
	return &Store{db: db, cache: cache, ttl: ttl}
}

// DB 底层数据库连接
func (s *Store) DB() *gorm.DB {
	return s.db
}

func cacheKey(kind, code string) string {
	return kind + ":" + code
}

func orderBySort(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

// cached 先读缓存，未命中时从数据库加载并回填
func cached[T any](ctx context.Context, s *Store, kind, code string, load func(*T) error) (*T, error) {
	key := cacheKey(kind, code)
	if data, ok := s.cache.Get(ctx, key); ok {
		var def T
		if err := json.Unmarshal(data, &def); err == nil {
			monitoring.DefinitionCacheLookups.WithLabelValues("hit").Inc()
			return &def, nil
		}
		s.cache.Invalidate(ctx, key)
	}
	monitoring.DefinitionCacheLookups.WithLabelValues("miss").Inc()

	var def T
	if err := load(&def); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s %q: %w", kind, code, ErrDefinitionNotFound)
		}
		return nil, fmt.Errorf("加载%s定义失败: %w", kind, err)
	}
	if data, err := json.Marshal(&def); err == nil {
		s.cache.Set(ctx, key, data, s.ttl)
	}
	return &def, nil
}

func listQuery(db *gorm.DB, f ListFilter) *gorm.DB {
	q := db
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	return q
}

// ensureUniqueCode 编码查重
func ensureUniqueCode(tx *gorm.DB, model interface{}, code string) error {
	var count int64
	if err := tx.Model(model).Where("code = ?", code).Count(&count).Error; err != nil {
		return fmt.Errorf("检查编码失败: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%q: %w", code, ErrDuplicateCode)
	}
	return nil
}

// ===== 表格定义 =====

// GetTable 按编码获取表格定义
func (s *Store) GetTable(ctx context.Context, code string) (*models.TableDefinition, error) {
	return cached(ctx, s, kindTable, code, func(t *models.TableDefinition) error {
		return s.db.WithContext(ctx).
			Preload("Columns", orderBySort).
			Preload("Filters", orderBySort).
			Where("code = ?", code).First(t).Error
	})
}

// ListTables 表格定义列表（不含列与筛选）
func (s *Store) ListTables(ctx context.Context, f ListFilter) ([]models.TableDefinition, int64, error) {
	f = f.normalized()
	q := listQuery(s.db.WithContext(ctx).Model(&models.TableDefinition{}), f)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计表格定义失败: %w", err)
	}
	var items []models.TableDefinition
	if err := q.Order("code ASC").Limit(f.Size).Offset((f.Page - 1) * f.Size).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("查询表格定义失败: %w", err)
	}
	return items, total, nil
}

// CreateTable 创建表格定义
func (s *Store) CreateTable(ctx context.Context, t *models.TableDefinition) error {
	if err := ValidateTable(t); err != nil {
		return err
	}
	t.ID = ""
	t.Version = 1
	resetTableChildren(t)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueCode(tx, &models.TableDefinition{}, t.Code); err != nil {
			return err
		}
		return tx.Create(t).Error
	})
	if err != nil {
		return err
	}
	slog.Info("表格定义已创建", "code", t.Code, "columns", len(t.Columns), "filters", len(t.Filters))
	return nil
}

// UpdateTable 更新表格定义：替换全部列与筛选，版本号加一
func (s *Store) UpdateTable(ctx context.Context, code string, t *models.TableDefinition) (*models.TableDefinition, error) {
	t.Code = code
	if err := ValidateTable(t); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.TableDefinition
		if err := tx.Where("code = ?", code).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s %q: %w", kindTable, code, ErrDefinitionNotFound)
			}
			return err
		}
		t.ID = existing.ID
		t.Version = existing.Version + 1
		t.CreatedAt = existing.CreatedAt
		t.CreatedBy = existing.CreatedBy
		resetTableChildren(t)

		if err := tx.Where("table_definition_id = ?", t.ID).Delete(&models.ColumnDefinition{}).Error; err != nil {
			return err
		}
		if err := tx.Where("table_definition_id = ?", t.ID).Delete(&models.FilterDefinition{}).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(t).Error; err != nil {
			return err
		}
		if len(t.Columns) > 0 {
			if err := tx.Create(&t.Columns).Error; err != nil {
				return err
			}
		}
		if len(t.Filters) > 0 {
			if err := tx.Create(&t.Filters).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKey(kindTable, code))
	slog.Info("表格定义已更新", "code", code, "version", t.Version)
	return t, nil
}

// DeleteTable 删除表格定义及其保存视图
func (s *Store) DeleteTable(ctx context.Context, code string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.TableDefinition
		if err := tx.Where("code = ?", code).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s %q: %w", kindTable, code, ErrDefinitionNotFound)
			}
			return err
		}
		for _, child := range []interface{}{&models.ColumnDefinition{}, &models.FilterDefinition{}, &models.ViewDefinition{}} {
			if err := tx.Where("table_definition_id = ?", existing.ID).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&existing).Error
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cacheKey(kindTable, code))
	slog.Info("表格定义已删除", "code", code)
	return nil
}

func resetTableChildren(t *models.TableDefinition) {
	for i := range t.Columns {
		t.Columns[i].ID = ""
		t.Columns[i].TableDefinitionID = t.ID
		if t.Columns[i].SortOrder == 0 {
			t.Columns[i].SortOrder = i + 1
		}
	}
	for i := range t.Filters {
		t.Filters[i].ID = ""
		t.Filters[i].TableDefinitionID = t.ID
		if t.Filters[i].SortOrder == 0 {
			t.Filters[i].SortOrder = i + 1
		}
	}
}

// ===== 表单定义 =====

// GetForm 按编码获取表单定义
func (s *Store) GetForm(ctx context.Context, code string) (*models.FormDefinition, error) {
	return cached(ctx, s, kindForm, code, func(f *models.FormDefinition) error {
		return s.db.WithContext(ctx).
			Preload("Fields", orderBySort).
			Preload("Sections", orderBySort).
			Where("code = ?", code).First(f).Error
	})
}

// ListForms 表单定义列表（不含字段与分区）
func (s *Store) ListForms(ctx context.Context, f ListFilter) ([]models.FormDefinition, int64, error) {
	f = f.normalized()
	q := listQuery(s.db.WithContext(ctx).Model(&models.FormDefinition{}), f)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计表单定义失败: %w", err)
	}
	var items []models.FormDefinition
	if err := q.Order("code ASC").Limit(f.Size).Offset((f.Page - 1) * f.Size).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("查询表单定义失败: %w", err)
	}
	return items, total, nil
}

// CreateForm 创建表单定义
func (s *Store) CreateForm(ctx context.Context, f *models.FormDefinition) error {
	if err := ValidateForm(f); err != nil {
		return err
	}
	f.ID = ""
	f.Version = 1
	resetFormChildren(f)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueCode(tx, &models.FormDefinition{}, f.Code); err != nil {
			return err
		}
		return tx.Create(f).Error
	})
	if err != nil {
		return err
	}
	slog.Info("表单定义已创建", "code", f.Code, "fields", len(f.Fields), "sections", len(f.Sections))
	return nil
}

// UpdateForm 更新表单定义：替换全部字段与分区，版本号加一
func (s *Store) UpdateForm(ctx context.Context, code string, f *models.FormDefinition) (*models.FormDefinition, error) {
	f.Code = code
	if err := ValidateForm(f); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.FormDefinition
		if err := tx.Where("code = ?", code).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s %q: %w", kindForm, code, ErrDefinitionNotFound)
			}
			return err
		}
		f.ID = existing.ID
		f.Version = existing.Version + 1
		f.CreatedAt = existing.CreatedAt
		f.CreatedBy = existing.CreatedBy
		resetFormChildren(f)

		if err := tx.Where("form_definition_id = ?", f.ID).Delete(&models.FieldDefinition{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_definition_id = ?", f.ID).Delete(&models.SectionDefinition{}).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(f).Error; err != nil {
			return err
		}
		if len(f.Sections) > 0 {
			if err := tx.Create(&f.Sections).Error; err != nil {
				return err
			}
		}
		if len(f.Fields) > 0 {
			if err := tx.Create(&f.Fields).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKey(kindForm, code))
	slog.Info("表单定义已更新", "code", code, "version", f.Version)
	return f, nil
}

// DeleteForm 删除表单定义；已有提交记录保留
func (s *Store) DeleteForm(ctx context.Context, code string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.FormDefinition
		if err := tx.Where("code = ?", code).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s %q: %w", kindForm, code, ErrDefinitionNotFound)
			}
			return err
		}
		for _, child := range []interface{}{&models.FieldDefinition{}, &models.SectionDefinition{}} {
			if err := tx.Where("form_definition_id = ?", existing.ID).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&existing).Error
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cacheKey(kindForm, code))
	slog.Info("表单定义已删除", "code", code)
	return nil
}

func resetFormChildren(f *models.FormDefinition) {
	for i := range f.Fields {
		f.Fields[i].ID = ""
		f.Fields[i].FormDefinitionID = f.ID
		if f.Fields[i].SortOrder == 0 {
			f.Fields[i].SortOrder = i + 1
		}
	}
	for i := range f.Sections {
		f.Sections[i].ID = ""
		f.Sections[i].FormDefinitionID = f.ID
		if f.Sections[i].SortOrder == 0 {
			f.Sections[i].SortOrder = i + 1
		}
	}
}

// ===== 报表定义 =====

// GetReport 按编码获取报表定义
func (s *Store) GetReport(ctx context.Context, code string) (*models.ReportDefinition, error) {
	return cached(ctx, s, kindReport, code, func(r *models.ReportDefinition) error {
		return s.db.WithContext(ctx).
			Preload("Fields", orderBySort).
			Preload("Parameters", orderBySort).
			Preload("Charts", orderBySort).
			Where("code = ?", code).First(r).Error
	})
}

// ListReports 报表定义列表（不含字段、参数与图表）
func (s *Store) ListReports(ctx context.Context, f ListFilter) ([]models.ReportDefinition, int64, error) {
	f = f.normalized()
	q := listQuery(s.db.WithContext(ctx).Model(&models.ReportDefinition{}), f)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计报表定义失败: %w", err)
	}
	var items []models.ReportDefinition
	if err := q.Order("code ASC").Limit(f.Size).Offset((f.Page - 1) * f.Size).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("查询报表定义失败: %w", err)
	}
	return items, total, nil
}

// CreateReport 创建报表定义
func (s *Store) CreateReport(ctx context.Context, r *models.ReportDefinition) error {
	if err := ValidateReport(r); err != nil {
		return err
	}
	r.ID = ""
	r.Version = 1
	resetReportChildren(r)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueCode(tx, &models.ReportDefinition{}, r.Code); err != nil {
			return err
		}
		return tx.Create(r).Error
	})
	if err != nil {
		return err
	}
	slog.Info("报表定义已创建", "code", r.Code, "fields", len(r.Fields), "charts", len(r.Charts))
	return nil
}

// UpdateReport 更新报表定义：替换字段、参数与图表，版本号加一
func (s *Store) UpdateReport(ctx context.Context, code string, r *models.ReportDefinition) (*models.ReportDefinition, error) {
	r.Code = code
	if err := ValidateReport(r); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ReportDefinition
		if err := tx.Where("code = ?", code).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s %q: %w", kindReport, code, ErrDefinitionNotFound)
			}
			return err
		}
		r.ID = existing.ID
		r.Version = existing.Version + 1
		r.CreatedAt = existing.CreatedAt
		r.CreatedBy = existing.CreatedBy
		resetReportChildren(r)

		for _, child := range []interface{}{&models.ReportField{}, &models.ReportParameter{}, &models.ReportChart{}} {
			if err := tx.Where("report_definition_id = ?", r.ID).Delete(child).Error; err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Save(r).Error; err != nil {
			return err
		}
		if len(r.Fields) > 0 {
			if err := tx.Create(&r.Fields).Error; err != nil {
				return err
			}
		}
		if len(r.Parameters) > 0 {
			if err := tx.Create(&r.Parameters).Error; err != nil {
				return err
			}
		}
		if len(r.Charts) > 0 {
			if err := tx.Create(&r.Charts).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cacheKey(kindReport, code))
	slog.Info("报表定义已更新", "code", code, "version", r.Version)
	return r, nil
}

// DeleteReport 删除报表定义及其定时任务
func (s *Store) DeleteReport(ctx context.Context, code string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ReportDefinition
		if err := tx.Where("code = ?", code).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s %q: %w", kindReport, code, ErrDefinitionNotFound)
			}
			return err
		}
		for _, child := range []interface{}{&models.ReportField{}, &models.ReportParameter{}, &models.ReportChart{}, &models.ReportSchedule{}} {
			if err := tx.Where("report_definition_id = ?", existing.ID).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&existing).Error
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cacheKey(kindReport, code))
	slog.Info("报表定义已删除", "code", code)
	return nil
}

func resetReportChildren(r *models.ReportDefinition) {
	for i := range r.Fields {
		r.Fields[i].ID = ""
		r.Fields[i].ReportDefinitionID = r.ID
		if r.Fields[i].SortOrder == 0 {
			r.Fields[i].SortOrder = i + 1
		}
	}
	for i := range r.Parameters {
		r.Parameters[i].ID = ""
		r.Parameters[i].ReportDefinitionID = r.ID
		if r.Parameters[i].SortOrder == 0 {
			r.Parameters[i].SortOrder = i + 1
		}
	}
	for i := range r.Charts {
		r.Charts[i].ID = ""
		r.Charts[i].ReportDefinitionID = r.ID
		if r.Charts[i].SortOrder == 0 {
			r.Charts[i].SortOrder = i + 1
		}
	}
}

// ===== 批量导入 =====

// UpsertTable 按编码创建或更新表格定义
func (s *Store) UpsertTable(ctx context.Context, t *models.TableDefinition) error {
	if _, err := s.GetTable(ctx, t.Code); err != nil {
		if errors.Is(err, ErrDefinitionNotFound) {
			return s.CreateTable(ctx, t)
		}
		return err
	}
	_, err := s.UpdateTable(ctx, t.Code, t)
	return err
}

// UpsertForm 按编码创建或更新表单定义
func (s *Store) UpsertForm(ctx context.Context, f *models.FormDefinition) error {
	if _, err := s.GetForm(ctx, f.Code); err != nil {
		if errors.Is(err, ErrDefinitionNotFound) {
			return s.CreateForm(ctx, f)
		}
		return err
	}
	_, err := s.UpdateForm(ctx, f.Code, f)
	return err
}

// UpsertReport 按编码创建或更新报表定义
func (s *Store) UpsertReport(ctx context.Context, r *models.ReportDefinition) error {
	if _, err := s.GetReport(ctx, r.Code); err != nil {
		if errors.Is(err, ErrDefinitionNotFound) {
			return s.CreateReport(ctx, r)
		}
		return err
	}
	_, err := s.UpdateReport(ctx, r.Code, r)
	return err
}
