package recordkit

import (
	"context"
	"errors"
)

// Load reads the record with the given key values. When no row matches,
// the record is reset to its defaults and a NotFoundError is returned.
func (r *Record) Load(ctx context.Context, keys ...any) error {
	t := r.typ
	pred, lits, err := t.keyPredicate(keys)
	if err != nil {
		return err
	}
	query := t.reg.builder.Select().From(t.table).Where(pred).String()
	row, err := t.reg.loadRow(ctx, query, t.cacheKey(lits))
	if err != nil {
		return err
	}
	if row == nil {
		r.Reset()
		return NewNotFoundError(t.name, keys...)
	}
	if err := r.fill(row); err != nil {
		return err
	}
	r.isNew = false
	return nil
}

// Refresh reloads a persisted record from the store. It does nothing for a
// new record.
func (r *Record) Refresh(ctx context.Context) error {
	if r.isNew {
		return nil
	}
	return r.Load(ctx, r.Key()...)
}

// Save inserts a new record or updates a persisted one, running the save
// hooks around the statement.
func (r *Record) Save(ctx context.Context) error {
	h := r.typ.hooks
	if err := run(ctx, h.PreSave, r); err != nil {
		return err
	}
	var err error
	if r.isNew {
		err = r.create(ctx)
	} else {
		err = r.update(ctx)
	}
	if err != nil {
		return err
	}
	return run(ctx, h.PostSave, r)
}

// written reports whether a field takes part in INSERT and UPDATE
// statements: generated fields are left to the store while they hold their
// default.
func (r *Record) written(name string) bool {
	fd := r.typ.fields[name]
	return !fd.Auto || !equalValues(r.data[name], r.typ.defaultValue(fd))
}

func (r *Record) create(ctx context.Context) error {
	t, h := r.typ, r.typ.hooks
	if err := run(ctx, h.PreCreate, r); err != nil {
		return err
	}
	ins := t.reg.builder.Insert(t.table)
	for _, name := range t.order {
		if !r.written(name) {
			continue
		}
		lit, err := t.scrub(t.fields[name], r.data[name])
		if err != nil {
			return err
		}
		ins.Set(name, lit)
	}
	res, err := t.reg.exec(ctx, ins.String())
	if err != nil {
		return err
	}
	r.isNew = false
	if res != nil {
		if id, err := res.LastInsertId(); err == nil {
			for _, name := range t.order {
				if t.fields[name].Auto {
					r.data[name] = id
				}
			}
		}
	}
	t.reg.logger.DebugContext(ctx, "record created", "type", t.name, "keys", r.Key())
	if err := r.Refresh(ctx); err != nil {
		return err
	}
	return run(ctx, h.PostCreate, r)
}

func (r *Record) update(ctx context.Context) error {
	t, h := r.typ, r.typ.hooks
	if err := run(ctx, h.PreUpdate, r); err != nil {
		return err
	}
	upd := t.reg.builder.Update(t.table)
	for _, name := range t.order {
		if !r.written(name) {
			continue
		}
		lit, err := t.scrub(t.fields[name], r.data[name])
		if err != nil {
			return err
		}
		upd.Set(name, lit)
	}
	if !upd.Empty() {
		pred, lits, err := t.keyPredicate(r.Key())
		if err != nil {
			return err
		}
		if _, err := t.reg.exec(ctx, upd.Where(pred).String()); err != nil {
			return err
		}
		t.reg.invalidate(ctx, t.cacheKey(lits))
		t.reg.logger.DebugContext(ctx, "record updated", "type", t.name, "keys", r.Key())
	}
	return run(ctx, h.PostUpdate, r)
}

// Delete removes a persisted record and resets it to its defaults. A
// PreDelete hook returning ErrAbort skips the delete without error. A new
// record issues no statement.
func (r *Record) Delete(ctx context.Context) error {
	t, h := r.typ, r.typ.hooks
	if err := run(ctx, h.PreDelete, r); err != nil {
		if errors.Is(err, ErrAbort) {
			return nil
		}
		return err
	}
	if !r.isNew {
		pred, lits, err := t.keyPredicate(r.Key())
		if err != nil {
			return err
		}
		if _, err := t.reg.exec(ctx, t.reg.builder.Delete(t.table).Where(pred).String()); err != nil {
			return err
		}
		t.reg.invalidate(ctx, t.cacheKey(lits))
		t.reg.logger.DebugContext(ctx, "record deleted", "type", t.name, "keys", r.Key())
	}
	r.Reset()
	return run(ctx, h.PostDelete, r)
}
