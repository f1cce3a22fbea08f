package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"entity-mapper/core/mapper"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var _ mapper.Store = (*Gorm)(nil)

type rowKey struct {
	typ reflect.Type
	id  any
}

// Link is an entity detached from a navigation property of its owner.
type Link struct {
	Owner    any
	Property string
	Entity   any
}

// Gorm is a unit of work over a gorm database. Rows it finds are kept in an identity
// map and saved, with their associations, by Save together with added rows.
//
// A Gorm store is meant for one session and is not safe for concurrent use.
type Gorm struct {
	db      *gorm.DB
	rows    map[rowKey]any
	tracked []any
	added   []any
	removed []any
	unlinks []Link
}

// NewGorm creates a unit of work over db.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db, rows: make(map[rowKey]any)}
}

// Add schedules entity for insertion.
func (s *Gorm) Add(entity any) {
	s.added = append(s.added, entity)
}

// Remove schedules entity for deletion.
func (s *Gorm) Remove(entity any) {
	s.removed = append(s.removed, entity)
}

// Unlink schedules the removal of the association between owner and entity.
func (s *Gorm) Unlink(owner any, property string, entity any) {
	s.unlinks = append(s.unlinks, Link{Owner: owner, Property: property, Entity: entity})
}

// Find loads the row of entityType whose idField equals id. inc may be a *Query.
func (s *Gorm) Find(ctx context.Context, entityType reflect.Type, idField string, id any, inc mapper.Includer) (any, error) {
	key := rowKey{typ: entityType, id: id}
	if row, ok := s.rows[key]; ok {
		return row, nil
	}

	sch, err := s.parse(reflect.New(entityType).Interface())
	if err != nil {
		return nil, err
	}
	field := sch.LookUpField(idField)
	if field == nil {
		return nil, fmt.Errorf("store: %s has no field %s", entityType, idField)
	}

	q, _ := inc.(*Query)
	row := reflect.New(entityType).Interface()
	err = q.Apply(s.db.WithContext(ctx)).
		Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: field.DBName}, Value: id}).
		Take(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find %s: %w", entityType, err)
	}

	if !q.Untracked() {
		s.rows[key] = row
		s.tracked = append(s.tracked, row)
	}
	return row, nil
}

// Save applies the pending changes in one transaction: unlinks first, then deletions,
// then tracked and added rows with their associations.
func (s *Gorm) Save(ctx context.Context) error {
	removed := lo.SliceToMap(s.removed, func(e any) (any, bool) { return e, true })

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, l := range s.unlinks {
			if removed[l.Owner] || !s.persisted(ctx, l.Owner) || !s.persisted(ctx, l.Entity) {
				continue
			}
			if err := s.unlink(ctx, tx, l); err != nil {
				return err
			}
		}

		for _, e := range s.removed {
			if !s.persisted(ctx, e) {
				continue
			}
			if err := tx.Delete(e).Error; err != nil {
				return fmt.Errorf("store: delete %T: %w", e, err)
			}
		}

		saves := lo.Uniq(append(append([]any(nil), s.tracked...), s.added...))
		full := tx.Session(&gorm.Session{FullSaveAssociations: true})
		for _, e := range saves {
			if removed[e] {
				continue
			}
			if err := full.Save(e).Error; err != nil {
				return fmt.Errorf("store: save %T: %w", e, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.added, s.removed, s.unlinks = nil, nil, nil
	return nil
}

// Pending returns the number of scheduled additions, removals and unlinks.
func (s *Gorm) Pending() (added, removed, unlinked int) {
	return len(s.added), len(s.removed), len(s.unlinks)
}

func (s *Gorm) unlink(ctx context.Context, tx *gorm.DB, l Link) error {
	assoc := tx.Model(l.Owner).Association(l.Property)
	if assoc.Error != nil {
		return fmt.Errorf("store: unlink %T.%s: %w", l.Owner, l.Property, assoc.Error)
	}
	if err := assoc.Delete(l.Entity); err != nil {
		return fmt.Errorf("store: unlink %T.%s: %w", l.Owner, l.Property, err)
	}

	// The owner's foreign key is written again by Save, so it must follow the
	// association field once that one has been cleared.
	rel := assoc.Relationship
	if rel.Type != schema.BelongsTo {
		return nil
	}
	owner := reflect.ValueOf(l.Owner).Elem()
	if _, zero := rel.Field.ValueOf(ctx, owner); !zero {
		return nil
	}
	for _, ref := range rel.References {
		if ref.OwnPrimaryKey || ref.PrimaryValue != "" {
			continue
		}
		if err := ref.ForeignKey.Set(ctx, owner, reflect.Zero(ref.ForeignKey.FieldType).Interface()); err != nil {
			return fmt.Errorf("store: clear %T.%s: %w", l.Owner, ref.ForeignKey.Name, err)
		}
	}
	return nil
}

// persisted reports whether entity has a primary key value.
func (s *Gorm) persisted(ctx context.Context, entity any) bool {
	sch, err := s.parse(entity)
	if err != nil || sch.PrioritizedPrimaryField == nil {
		return false
	}
	_, zero := sch.PrioritizedPrimaryField.ValueOf(ctx, reflect.ValueOf(entity).Elem())
	return !zero
}

func (s *Gorm) parse(model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("store: parse %T: %w", model, err)
	}
	return stmt.Schema, nil
}
