package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/dealdesk/internal/domain/model"
	"github.com/okian/dealdesk/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type dealRow struct {
	ID          int    `gorm:"primaryKey;autoIncrement:false"`
	ContactID   int    `gorm:"index"`
	Name        string `gorm:"size:255;not null"`
	Value       int64  `gorm:"not null"`
	Stage       string `gorm:"size:32;index;not null"`
	AssignedRep string `gorm:"size:255"`
	Probability int
	Year        int `gorm:"index"`
	StartMonth  int
	EndMonth    int
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (dealRow) TableName() string { return "deals" }

func dealToRow(d model.Deal) dealRow {
	return dealRow{
		ID: d.ID, ContactID: d.ContactID, Name: d.Name, Value: d.Value, Stage: string(d.Stage),
		AssignedRep: d.AssignedRep, Probability: d.Probability, Year: d.Year,
		StartMonth: d.StartMonth, EndMonth: d.EndMonth, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func (r dealRow) model() model.Deal {
	return model.Deal{
		ID: r.ID, ContactID: r.ContactID, Name: r.Name, Value: r.Value, Stage: model.Stage(r.Stage),
		AssignedRep: r.AssignedRep, Probability: r.Probability, Year: r.Year,
		StartMonth: r.StartMonth, EndMonth: r.EndMonth, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type contactRow struct {
	ID            int       `gorm:"primaryKey;autoIncrement:false"`
	Name          string    `gorm:"size:255;not null"`
	Email         string    `gorm:"size:255"`
	Company       string    `gorm:"size:255"`
	Phone         string    `gorm:"size:64"`
	Status        string    `gorm:"size:32;index"`
	AssignedRep   string    `gorm:"size:255;index"`
	Tags          []string  `gorm:"serializer:json;type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false"`
	LastContacted *time.Time
}

func (contactRow) TableName() string { return "contacts" }

func contactToRow(c model.Contact) contactRow {
	return contactRow{
		ID: c.ID, Name: c.Name, Email: c.Email, Company: c.Company, Phone: c.Phone,
		Status: string(c.Status), AssignedRep: c.AssignedRep, Tags: c.Tags,
		CreatedAt: c.CreatedAt, LastContacted: c.LastContacted,
	}
}

func (r contactRow) model() model.Contact {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.Contact{
		ID: r.ID, Name: r.Name, Email: r.Email, Company: r.Company, Phone: r.Phone,
		Status: model.ContactStatus(r.Status), AssignedRep: r.AssignedRep, Tags: tags,
		CreatedAt: r.CreatedAt, LastContacted: r.LastContacted,
	}
}

type repRow struct {
	ID             int    `gorm:"primaryKey;autoIncrement:false"`
	Name           string `gorm:"size:255;not null"`
	Email          string `gorm:"size:255"`
	Avatar         string `gorm:"size:512"`
	LeadsContacted int
	MeetingsBooked int
	DealsClosed    int
	Revenue        int64
}

func (repRow) TableName() string { return "sales_reps" }

func repToRow(r model.SalesRep) repRow {
	return repRow{
		ID: r.ID, Name: r.Name, Email: r.Email, Avatar: r.Avatar, LeadsContacted: r.LeadsContacted,
		MeetingsBooked: r.MeetingsBooked, DealsClosed: r.DealsClosed, Revenue: r.Revenue,
	}
}

func (r repRow) model() model.SalesRep {
	return model.SalesRep{
		ID: r.ID, Name: r.Name, Email: r.Email, Avatar: r.Avatar, LeadsContacted: r.LeadsContacted,
		MeetingsBooked: r.MeetingsBooked, DealsClosed: r.DealsClosed, Revenue: r.Revenue,
	}
}

// Gorm is the SQL backend for sqlite and mysql.
type Gorm struct {
	db   *gorm.DB
	opts options
}

// Open returns the backend for driver. dsn is ignored for the memory driver.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Backend, error) {
	switch strings.ToLower(driver) {
	case "", DriverMemory:
		return NewMemory(opts...), nil
	case DriverSQLite:
		return NewGorm(ctx, sqlite.Open(dsn), opts...)
	case DriverMySQL:
		return NewGorm(ctx, mysql.Open(dsn), opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// NewGorm connects through dialector and migrates the schema.
func NewGorm(ctx context.Context, dialector gorm.Dialector, opts ...Option) (*Gorm, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newGormLog(o.log),
		NowFunc: o.now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrNotAvailable, dialector.Name(), err)
	}
	if dialector.Name() == DriverSQLite {
		// One connection keeps ":memory:" databases shared and sqlite writes serial.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotAvailable, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.WithContext(ctx).AutoMigrate(&dealRow{}, &contactRow{}, &repRow{}); err != nil {
		return nil, fmt.Errorf("%w: migrate: %w", ErrNotAvailable, err)
	}
	o.log.Info(ctx, "sql store ready", logger.String("dialect", dialector.Name()))
	return &Gorm{db: db, opts: o}, nil
}

func (g *Gorm) Deals() DealStore       { return gormDeals{g} }
func (g *Gorm) Contacts() ContactStore { return gormContacts{g} }
func (g *Gorm) Reps() SalesRepStore    { return gormReps{g} }

func (g *Gorm) Empty(ctx context.Context) (bool, error) {
	db := g.db.WithContext(ctx)
	for _, m := range []any{&dealRow{}, &contactRow{}, &repRow{}} {
		var n int64
		if err := db.Model(m).Count(&n).Error; err != nil {
			return false, dbErr(err)
		}
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}

func (g *Gorm) Import(ctx context.Context, ds Dataset) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range ds.Contacts {
			row := contactToRow(c.WithDefaults())
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, d := range ds.Deals {
			row := dealToRow(d.WithDefaults())
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, r := range ds.Reps {
			row := repToRow(r)
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return dbErr(err)
	}
	g.opts.log.Info(ctx, "dataset imported",
		logger.Int("contacts", len(ds.Contacts)),
		logger.Int("deals", len(ds.Deals)),
		logger.Int("reps", len(ds.Reps)))
	return nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// dbErr maps driver failures onto the store sentinels.
func dbErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotAvailable),
		errors.Is(err, model.ErrInvalidRecord), errors.Is(err, model.ErrInvalidStage),
		errors.Is(err, model.ErrInvalidStatus):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}
}

// nextID returns max(id)+1 for the row type, read inside tx.
func nextID(tx *gorm.DB, row any) (int, error) {
	var maxID int
	if err := tx.Model(row).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

func notFound(entity string, id int) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}

type gormDeals struct{ g *Gorm }

func (s gormDeals) find(ctx context.Context, op string, query func(*gorm.DB) *gorm.DB) (_ []model.Deal, err error) {
	defer func(start time.Time) { observe(EntityDeal, op, start, err) }(time.Now())
	var rows []dealRow
	if err = query(s.g.db.WithContext(ctx)).Order("id").Find(&rows).Error; err != nil {
		return nil, dbErr(err)
	}
	out := make([]model.Deal, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (s gormDeals) List(ctx context.Context) ([]model.Deal, error) {
	return s.find(ctx, "list", func(db *gorm.DB) *gorm.DB { return db })
}

func (s gormDeals) ListByStage(ctx context.Context, stage model.Stage) ([]model.Deal, error) {
	return s.find(ctx, "list_by_stage", func(db *gorm.DB) *gorm.DB { return db.Where("stage = ?", string(stage)) })
}

func (s gormDeals) ListByYear(ctx context.Context, year int) ([]model.Deal, error) {
	return s.find(ctx, "list_by_year", func(db *gorm.DB) *gorm.DB { return db.Where("year = ?", year) })
}

func (s gormDeals) Get(ctx context.Context, id int) (_ model.Deal, err error) {
	defer func(start time.Time) { observe(EntityDeal, "get", start, err) }(time.Now())
	var row dealRow
	if err = s.g.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Deal{}, notFound(EntityDeal, id)
		}
		return model.Deal{}, dbErr(err)
	}
	return row.model(), nil
}

func (s gormDeals) Create(ctx context.Context, in model.Deal) (_ model.Deal, err error) {
	defer func(start time.Time) { observe(EntityDeal, "create", start, err) }(time.Now())
	in = in.WithDefaults()
	if err = in.Validate(); err != nil {
		return model.Deal{}, err
	}
	err = s.g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := nextID(tx, &dealRow{})
		if err != nil {
			return err
		}
		now := s.g.opts.now()
		in.ID, in.CreatedAt, in.UpdatedAt = id, now, now
		row := dealToRow(in)
		return tx.Create(&row).Error
	})
	if err != nil {
		return model.Deal{}, dbErr(err)
	}
	return in, nil
}

func (s gormDeals) Update(ctx context.Context, id int, p model.DealPatch) (out model.Deal, err error) {
	defer func(start time.Time) { observe(EntityDeal, "update", start, err) }(time.Now())
	err = s.g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row dealRow
		if err := tx.First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(EntityDeal, id)
			}
			return err
		}
		next := p.Apply(row.model())
		if err := next.Validate(); err != nil {
			return err
		}
		next.UpdatedAt = s.g.opts.now()
		nr := dealToRow(next)
		if err := tx.Save(&nr).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return model.Deal{}, dbErr(err)
	}
	return out, nil
}

func (s gormDeals) UpdateStage(ctx context.Context, id int, stage model.Stage) (model.Deal, error) {
	return s.Update(ctx, id, model.DealPatch{Stage: &stage})
}

func (s gormDeals) Delete(ctx context.Context, id int) (err error) {
	defer func(start time.Time) { observe(EntityDeal, "delete", start, err) }(time.Now())
	res := s.g.db.WithContext(ctx).Delete(&dealRow{}, id)
	if res.Error != nil {
		return dbErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(EntityDeal, id)
	}
	return nil
}

type gormContacts struct{ g *Gorm }

func (s gormContacts) find(ctx context.Context, op string, query func(*gorm.DB) *gorm.DB) (_ []model.Contact, err error) {
	defer func(start time.Time) { observe(EntityContact, op, start, err) }(time.Now())
	var rows []contactRow
	if err = query(s.g.db.WithContext(ctx)).Order("id").Find(&rows).Error; err != nil {
		return nil, dbErr(err)
	}
	out := make([]model.Contact, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (s gormContacts) List(ctx context.Context) ([]model.Contact, error) {
	return s.find(ctx, "list", func(db *gorm.DB) *gorm.DB { return db })
}

// likeEscaper makes LIKE wildcards match literally, as matchSearch does.
// '!' is the escape character because mysql treats a backslash in a string
// literal as an escape of its own.
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`) //nolint:gochecknoglobals // immutable replacer

func (s gormContacts) Search(ctx context.Context, term string) ([]model.Contact, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	return s.find(ctx, "search", func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}
		like := "%" + likeEscaper.Replace(term) + "%"
		return db.Where(`LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!' OR LOWER(company) LIKE ? ESCAPE '!'`,
			like, like, like)
	})
}

func (s gormContacts) Filter(ctx context.Context, f ContactFilter) ([]model.Contact, error) {
	cf, err := compileFilter(f)
	if err != nil {
		observe(EntityContact, "filter", time.Now(), err)
		return nil, err
	}
	return s.find(ctx, "filter", func(db *gorm.DB) *gorm.DB {
		if cf.status != "" {
			db = db.Where("status = ?", string(cf.status))
		}
		if cf.rep != "" {
			db = db.Where("assigned_rep = ?", cf.rep)
		}
		return db
	})
}

func (s gormContacts) Get(ctx context.Context, id int) (_ model.Contact, err error) {
	defer func(start time.Time) { observe(EntityContact, "get", start, err) }(time.Now())
	var row contactRow
	if err = s.g.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Contact{}, notFound(EntityContact, id)
		}
		return model.Contact{}, dbErr(err)
	}
	return row.model(), nil
}

func (s gormContacts) Create(ctx context.Context, in model.Contact) (_ model.Contact, err error) {
	defer func(start time.Time) { observe(EntityContact, "create", start, err) }(time.Now())
	in = in.WithDefaults()
	if err = in.Validate(); err != nil {
		return model.Contact{}, err
	}
	err = s.g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := nextID(tx, &contactRow{})
		if err != nil {
			return err
		}
		in.ID, in.CreatedAt, in.LastContacted = id, s.g.opts.now(), nil
		row := contactToRow(in)
		return tx.Create(&row).Error
	})
	if err != nil {
		return model.Contact{}, dbErr(err)
	}
	return in, nil
}

func (s gormContacts) Update(ctx context.Context, id int, p model.ContactPatch) (out model.Contact, err error) {
	defer func(start time.Time) { observe(EntityContact, "update", start, err) }(time.Now())
	err = s.g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row contactRow
		if err := tx.First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(EntityContact, id)
			}
			return err
		}
		next := p.Apply(row.model())
		if err := next.Validate(); err != nil {
			return err
		}
		nr := contactToRow(next)
		if err := tx.Save(&nr).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return model.Contact{}, dbErr(err)
	}
	return out, nil
}

func (s gormContacts) Delete(ctx context.Context, id int) (err error) {
	defer func(start time.Time) { observe(EntityContact, "delete", start, err) }(time.Now())
	res := s.g.db.WithContext(ctx).Delete(&contactRow{}, id)
	if res.Error != nil {
		return dbErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(EntityContact, id)
	}
	return nil
}

type gormReps struct{ g *Gorm }

func (s gormReps) List(ctx context.Context) (_ []model.SalesRep, err error) {
	defer func(start time.Time) { observe(EntityRep, "list", start, err) }(time.Now())
	var rows []repRow
	if err = s.g.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, dbErr(err)
	}
	out := make([]model.SalesRep, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (s gormReps) Get(ctx context.Context, id int) (_ model.SalesRep, err error) {
	defer func(start time.Time) { observe(EntityRep, "get", start, err) }(time.Now())
	var row repRow
	if err = s.g.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.SalesRep{}, notFound(EntityRep, id)
		}
		return model.SalesRep{}, dbErr(err)
	}
	return row.model(), nil
}

func (s gormReps) Create(ctx context.Context, in model.SalesRep) (_ model.SalesRep, err error) {
	defer func(start time.Time) { observe(EntityRep, "create", start, err) }(time.Now())
	in = newSalesRep(in)
	if err = in.Validate(); err != nil {
		return model.SalesRep{}, err
	}
	err = s.g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := nextID(tx, &repRow{})
		if err != nil {
			return err
		}
		in.ID = id
		row := repToRow(in)
		return tx.Create(&row).Error
	})
	if err != nil {
		return model.SalesRep{}, dbErr(err)
	}
	return in, nil
}

func (s gormReps) Update(ctx context.Context, id int, p model.SalesRepPatch) (out model.SalesRep, err error) {
	defer func(start time.Time) { observe(EntityRep, "update", start, err) }(time.Now())
	err = s.g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row repRow
		if err := tx.First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(EntityRep, id)
			}
			return err
		}
		next := p.Apply(row.model())
		if err := next.Validate(); err != nil {
			return err
		}
		nr := repToRow(next)
		if err := tx.Save(&nr).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return model.SalesRep{}, dbErr(err)
	}
	return out, nil
}

func (s gormReps) Delete(ctx context.Context, id int) (err error) {
	defer func(start time.Time) { observe(EntityRep, "delete", start, err) }(time.Now())
	res := s.g.db.WithContext(ctx).Delete(&repRow{}, id)
	if res.Error != nil {
		return dbErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(EntityRep, id)
	}
	return nil
}
