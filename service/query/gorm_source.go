/*
 * @module service/query/gorm_source
 * @description 基于 GORM 的记录源，把谓词翻译为 clause 表达式并在数据库中执行
 * @architecture 适配器模式 - RecordSource 的 SQL 实现
 * @stateFlow FetchSpec -> clause 表达式 -> COUNT -> ORDER/LIMIT/OFFSET -> rows
 * @rules
 *   - 列名一律通过 clause.Column 引用（由方言加引号），取值一律绑定参数
 *   - 文本匹配（contains/starts_with/ends_with/搜索）忽略大小写
 *   - 日期操作符按 DATE(列) 截断后比较
 * @dependencies gorm.io/gorm, gorm.io/gorm/clause
 * @refs builder.go, source.go
 */

package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dynconfig-service/service/compare"
	"dynconfig-service/service/models"
	"dynconfig-service/service/monitoring"
)

// GormSource SQL 表或视图记录源
type GormSource struct {
	db    *gorm.DB
	table string
}

// NewGormSource 创建 SQL 记录源，table 为表名或视图名
func NewGormSource(db *gorm.DB, table string) *GormSource {
	return &GormSource{db: db, table: table}
}

type exprBuilder func(col clause.Column, value interface{}) clause.Expression

var sqlPredicates = map[models.FilterOperator]exprBuilder{
	models.OpEquals: func(col clause.Column, v interface{}) clause.Expression {
		return clause.Eq{Column: col, Value: v}
	},
	models.OpNotEquals: func(col clause.Column, v interface{}) clause.Expression {
		return clause.Neq{Column: col, Value: v}
	},
	models.OpContains: func(col clause.Column, v interface{}) clause.Expression {
		return likeFold(col, "%"+escapeLike(compare.ToString(v))+"%")
	},
	models.OpStartsWith: func(col clause.Column, v interface{}) clause.Expression {
		return likeFold(col, escapeLike(compare.ToString(v))+"%")
	},
	models.OpEndsWith: func(col clause.Column, v interface{}) clause.Expression {
		return likeFold(col, "%"+escapeLike(compare.ToString(v)))
	},
	models.OpGreaterThan: func(col clause.Column, v interface{}) clause.Expression {
		return clause.Gt{Column: col, Value: v}
	},
	models.OpLessThan: func(col clause.Column, v interface{}) clause.Expression {
		return clause.Lt{Column: col, Value: v}
	},
	models.OpBetween: func(col clause.Column, v interface{}) clause.Expression {
		lo, hi, _ := compare.Range(v)
		return clause.Expr{SQL: "? BETWEEN ? AND ?", Vars: []interface{}{col, lo, hi}}
	},
	models.OpIn: func(col clause.Column, v interface{}) clause.Expression {
		return clause.IN{Column: col, Values: compare.ToList(v)}
	},
	models.OpNotIn: func(col clause.Column, v interface{}) clause.Expression {
		return clause.Not(clause.IN{Column: col, Values: compare.ToList(v)})
	},
	models.OpIsNull: func(col clause.Column, _ interface{}) clause.Expression {
		return clause.Expr{SQL: "? IS NULL", Vars: []interface{}{col}}
	},
	models.OpIsNotNull: func(col clause.Column, _ interface{}) clause.Expression {
		return clause.Expr{SQL: "? IS NOT NULL", Vars: []interface{}{col}}
	},
	models.OpDateEquals: func(col clause.Column, v interface{}) clause.Expression {
		return clause.Expr{SQL: "DATE(?) = ?", Vars: []interface{}{col, dateString(v)}}
	},
	models.OpDateBefore: func(col clause.Column, v interface{}) clause.Expression {
		return clause.Expr{SQL: "DATE(?) < ?", Vars: []interface{}{col, dateString(v)}}
	},
	models.OpDateAfter: func(col clause.Column, v interface{}) clause.Expression {
		return clause.Expr{SQL: "DATE(?) > ?", Vars: []interface{}{col, dateString(v)}}
	},
	models.OpDateBetween: func(col clause.Column, v interface{}) clause.Expression {
		lo, hi, _ := compare.Range(v)
		return clause.Expr{SQL: "DATE(?) BETWEEN ? AND ?", Vars: []interface{}{col, dateString(lo), dateString(hi)}}
	},
}

func likeFold(col clause.Column, pattern string) clause.Expression {
	return clause.Expr{
		SQL:  "LOWER(CAST(? AS TEXT)) LIKE ? ESCAPE '\\'",
		Vars: []interface{}{col, strings.ToLower(pattern)},
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func dateString(v interface{}) string {
	d, ok := compare.ToDate(v)
	if !ok {
		return compare.ToString(v)
	}
	return d.Format("2006-01-02")
}

// Fetch 执行查询
func (g *GormSource) Fetch(ctx context.Context, spec FetchSpec) (*FetchResult, error) {
	start := time.Now()
	defer func() {
		monitoring.QueryDuration.WithLabelValues(g.table).Observe(time.Since(start).Seconds())
	}()

	exprs := make([]clause.Expression, 0, len(spec.Predicates)+1)
	for _, p := range spec.Predicates {
		build, ok := sqlPredicates[p.Operator]
		if !ok {
			continue
		}
		exprs = append(exprs, build(clause.Column{Name: p.Field}, p.Value))
	}
	if spec.Search != nil && spec.Search.Term != "" && len(spec.Search.Fields) > 0 {
		pattern := "%" + escapeLike(spec.Search.Term) + "%"
		ors := make([]clause.Expression, 0, len(spec.Search.Fields))
		for _, f := range spec.Search.Fields {
			ors = append(ors, likeFold(clause.Column{Name: f}, pattern))
		}
		exprs = append(exprs, clause.Or(ors...))
	}

	q := g.db.WithContext(ctx).Table(g.table)
	if len(exprs) > 0 {
		q = q.Clauses(clause.Where{Exprs: exprs})
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计记录数失败: %w", err)
	}

	rowsQuery := q
	for _, s := range spec.Sort {
		rowsQuery = rowsQuery.Order(clause.OrderByColumn{
			Column: clause.Column{Name: s.Field},
			Desc:   s.Direction == models.SortDesc,
		})
	}
	if spec.Limit > 0 {
		rowsQuery = rowsQuery.Limit(spec.Limit).Offset(spec.Offset)
	}

	var rows []map[string]interface{}
	if err := rowsQuery.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询记录失败: %w", err)
	}
	if rows == nil {
		rows = []map[string]interface{}{}
	}
	return &FetchResult{Rows: rows, Total: total}, nil
}
