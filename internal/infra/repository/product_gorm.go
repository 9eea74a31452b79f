package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	"storefront/internal/query"
	repo "storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Plan の列名として許可するもの（SQLに直接埋め込むため）
var productColumns = map[string]struct{}{
	query.ColumnCategoryID:    {},
	query.ColumnSubcategoryID: {},
	query.ColumnPrice:         {},
	query.ColumnStock:         {},
	query.ColumnName:          {},
	query.ColumnCreatedAt:     {},
	query.ColumnID:            {},
}

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// Plan の条件で1ページ分と総件数を返す。件数とページは並行に取る。
func (r *ProductGormRepository) List(ctx context.Context, plan query.Plan) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	g, gctx := errgroup.WithContext(ctx)

	//total（件数）
	g.Go(func() error {
		tx, err := r.filtered(r.db.WithContext(gctx).Model(&model.Product{}), plan)
		if err != nil {
			return err
		}
		if err := tx.Count(&total).Error; err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		return nil
	})

	//ページ
	g.Go(func() error {
		tx, err := r.listQuery(r.db.WithContext(gctx), plan)
		if err != nil {
			return err
		}
		if err := tx.Find(&products).Error; err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return []model.Product{}, 0, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, total, nil
}

// listQuery は WHERE + ORDER BY + OFFSET/LIMIT まで付けたクエリ。
func (r *ProductGormRepository) listQuery(tx *gorm.DB, plan query.Plan) (*gorm.DB, error) {
	tx, err := r.filtered(tx.Model(&model.Product{}), plan)
	if err != nil {
		return nil, err
	}

	//sort（同順位は id で解消）
	for _, o := range plan.Order {
		if _, ok := productColumns[o.Column]; !ok {
			return nil, fmt.Errorf("unknown order column %q", o.Column)
		}
		tx = tx.Order(o.SQL())
	}

	return tx.Offset(plan.Offset).Limit(plan.Limit), nil
}

// filtered は Plan の述語を WHERE に変換する（AND）。
func (r *ProductGormRepository) filtered(tx *gorm.DB, plan query.Plan) (*gorm.DB, error) {
	for _, p := range plan.Predicates {
		var err error
		tx, err = applyPredicate(tx, p)
		if err != nil {
			return nil, err
		}
	}
	return tx, nil
}

func applyPredicate(tx *gorm.DB, p query.Predicate) (*gorm.DB, error) {
	switch p.Op {
	case query.OpEq:
		if _, ok := productColumns[p.Column]; !ok {
			return nil, fmt.Errorf("unknown column %q", p.Column)
		}
		return tx.Where(p.Column+" = ?", p.ID), nil

	case query.OpRange:
		if _, ok := productColumns[p.Column]; !ok {
			return nil, fmt.Errorf("unknown column %q", p.Column)
		}
		if p.Lower != nil {
			op := " >= ?"
			if p.LowerExclusive {
				op = " > ?"
			}
			tx = tx.Where(p.Column+op, *p.Lower)
		}
		if p.Upper != nil {
			tx = tx.Where(p.Column+" <= ?", *p.Upper)
		}
		return tx, nil

	case query.OpContains:
		doc, err := json.Marshal(map[string]string{p.Key: p.Value})
		if err != nil {
			return nil, err
		}
		return tx.Where("attributes @> ?::jsonb", string(doc)), nil

	case query.OpBoolEq:
		doc, err := json.Marshal(map[string]bool{p.Key: p.Bool})
		if err != nil {
			return nil, err
		}
		return tx.Where("attributes @> ?::jsonb", string(doc)), nil

	case query.OpAnyOf:
		if len(p.Values) == 0 {
			return tx, nil
		}
		return tx.Where("attributes ->> ? IN ?", p.Key, p.Values), nil
	}
	return nil, fmt.Errorf("unknown predicate %q", p.Op)
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, translateError(err)
	}
	return p, nil
}

// 商品の更新
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"category_id":    p.CategoryID,
		"subcategory_id": p.SubcategoryID,
		"name":           p.Name,
		"slug":           p.Slug,
		"description":    p.Description,
		"price":          p.Price,
		"stock":          p.Stock,
		"images":         p.Images,
		"brand":          p.Brand,
		"attributes":     p.Attributes,
	})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除（deleted_at を立てる）
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 23505 unique_violation → ErrConflict
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", repo.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
