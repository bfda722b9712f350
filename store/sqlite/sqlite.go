/*
Package sqlite provides a SQLite-backed implementation of the payroll store contracts.

PURPOSE:
  Implements every persistence interface the engine consumes, plus the
  record-capture writes used by the API (instructors, courses, attendance,
  sales, settings).

INTERFACES IMPLEMENTED:
  payroll.RuleStore:           one row per effective month
  payroll.AttendanceStore:     attendance by instructor and date range
  payroll.SalesStore:          sales by instructor and date range
  payroll.InstructorDirectory: the roster
  payroll.SummaryStore:        monthly summaries, replaced per month
  payroll.SettingsStore:       key/value settings

KEY TABLES:
  payroll_rules:     rates per effective month, lock state
  instructors:       roster
  courses:           course catalog
  attendances:       immutable attendance records
  sales:             immutable sales records
  monthly_payroll:   computed summaries, UNIQUE(month, instructor_id)
  settings:          key/value

ENCODING:
  Months are TEXT "YYYY-MM", dates TEXT "YYYY-MM-DD" (lexical order equals
  calendar order, so range filters are plain string comparisons), money is
  TEXT holding the decimal's exact string, timestamps are RFC3339.

CONCURRENCY:
  The pool is limited to one connection. SQLite allows a single writer
  anyway, and ":memory:" databases are per-connection.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/studio-payroll/payroll"
)

// Store implements all payroll storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Payroll rules (one per effective month)
	CREATE TABLE IF NOT EXISTS payroll_rules (
		id TEXT PRIMARY KEY,
		effective_month TEXT NOT NULL UNIQUE,
		tier_1_5 TEXT NOT NULL,
		tier_6_10 TEXT NOT NULL,
		tier_11_15 TEXT NOT NULL,
		tier_16_plus TEXT NOT NULL,
		sales_bonus_unit TEXT NOT NULL,
		locked BOOLEAN NOT NULL DEFAULT FALSE,
		locked_at TEXT,
		created_at TEXT NOT NULL
	);

	-- Instructors (roster)
	CREATE TABLE IF NOT EXISTS instructors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		created_at TEXT NOT NULL
	);

	-- Courses
	CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	-- Attendance records (immutable)
	CREATE TABLE IF NOT EXISTS attendances (
		id TEXT PRIMARY KEY,
		instructor_id TEXT NOT NULL,
		course_id TEXT NOT NULL,
		date TEXT NOT NULL,
		student_count INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Hot path for monthly aggregation
	CREATE INDEX IF NOT EXISTS idx_attendances_instructor_date
		ON attendances(instructor_id, date);

	-- Sales records (immutable)
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		instructor_id TEXT NOT NULL,
		date TEXT NOT NULL,
		product TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_instructor_date
		ON sales(instructor_id, date);

	-- Monthly payroll summaries (fully replaced per month)
	CREATE TABLE IF NOT EXISTS monthly_payroll (
		month TEXT NOT NULL,
		instructor_id TEXT NOT NULL,
		instructor_name TEXT NOT NULL,
		class_count INTEGER NOT NULL,
		student_count INTEGER NOT NULL,
		attendance_pay TEXT NOT NULL,
		sales_bonus TEXT NOT NULL,
		total_pay TEXT NOT NULL,
		UNIQUE(month, instructor_id)
	);

	-- Settings
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all data. Used by demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{"payroll_rules", "instructors", "courses", "attendances", "sales", "monthly_payroll", "settings"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// RULE STORE (payroll.RuleStore)
// =============================================================================

const ruleColumns = `id, effective_month, tier_1_5, tier_6_10, tier_11_15, tier_16_plus,
	sales_bonus_unit, locked, locked_at, created_at`

// FindRule returns the rule for month.
func (s *Store) FindRule(ctx context.Context, month payroll.Month) (payroll.PayrollRule, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+ruleColumns+" FROM payroll_rules WHERE effective_month = ?",
		month.String(),
	)
	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return payroll.PayrollRule{}, false, nil
	}
	if err != nil {
		return payroll.PayrollRule{}, false, err
	}
	return rule, true, nil
}

// ListRules returns all rules, oldest month first.
func (s *Store) ListRules(ctx context.Context) ([]payroll.PayrollRule, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+ruleColumns+" FROM payroll_rules ORDER BY effective_month ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []payroll.PayrollRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// UpsertRule inserts a rule or updates the rates of the existing row for
// the same month. ID, created_at and lock state of an existing row are kept.
// Locked rows are left untouched and a *payroll.RuleLockedError is returned.
func (s *Store) UpsertRule(ctx context.Context, rule payroll.PayrollRule) (payroll.PayrollRule, error) {
	n, err := s.insertRule(ctx, rule, `
		ON CONFLICT(effective_month) DO UPDATE SET
			tier_1_5 = excluded.tier_1_5,
			tier_6_10 = excluded.tier_6_10,
			tier_11_15 = excluded.tier_11_15,
			tier_16_plus = excluded.tier_16_plus,
			sales_bonus_unit = excluded.sales_bonus_unit
		WHERE payroll_rules.locked = FALSE
	`)
	if err != nil {
		return payroll.PayrollRule{}, fmt.Errorf("failed to upsert rule: %w", err)
	}

	stored, err := s.mustFindRule(ctx, rule.EffectiveMonth)
	if err != nil {
		return payroll.PayrollRule{}, err
	}
	if n == 0 && stored.Locked {
		return stored, &payroll.RuleLockedError{Month: rule.EffectiveMonth, Reason: "locked"}
	}
	return stored, nil
}

// CreateRuleIfAbsent inserts rule only when its month has no row yet and
// returns the stored row either way.
func (s *Store) CreateRuleIfAbsent(ctx context.Context, rule payroll.PayrollRule) (payroll.PayrollRule, error) {
	if _, err := s.insertRule(ctx, rule, "ON CONFLICT(effective_month) DO NOTHING"); err != nil {
		return payroll.PayrollRule{}, fmt.Errorf("failed to create rule: %w", err)
	}
	return s.mustFindRule(ctx, rule.EffectiveMonth)
}

// insertRule runs an INSERT of rule followed by the given conflict clause
// and returns the number of rows written.
func (s *Store) insertRule(ctx context.Context, rule payroll.PayrollRule, onConflict string) (int64, error) {
	query := `
		INSERT INTO payroll_rules (` + ruleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, FALSE, NULL, ?)
	` + onConflict

	createdAt := rule.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, query,
		string(rule.ID),
		rule.EffectiveMonth.String(),
		rule.Tier1to5.String(),
		rule.Tier6to10.String(),
		rule.Tier11to15.String(),
		rule.Tier16Plus.String(),
		rule.SalesBonusUnit.String(),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) mustFindRule(ctx context.Context, month payroll.Month) (payroll.PayrollRule, error) {
	stored, found, err := s.FindRule(ctx, month)
	if err != nil {
		return payroll.PayrollRule{}, err
	}
	if !found {
		return payroll.PayrollRule{}, fmt.Errorf("rule for %s missing after write", month)
	}
	return stored, nil
}

// MarkRuleLocked locks the rule for month. Already locked rows keep their
// first locked_at.
func (s *Store) MarkRuleLocked(ctx context.Context, month payroll.Month, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE payroll_rules SET locked = TRUE, locked_at = ? WHERE effective_month = ? AND locked = FALSE",
		at.UTC().Format(time.RFC3339Nano), month.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to lock rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	_, found, err := s.FindRule(ctx, month)
	if err != nil {
		return err
	}
	if !found {
		return payroll.ErrRuleNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (payroll.PayrollRule, error) {
	var (
		rule                                      payroll.PayrollRule
		id, month, t1, t2, t3, t4, bonus, created string
		lockedAt                                  sql.NullString
	)

	err := row.Scan(&id, &month, &t1, &t2, &t3, &t4, &bonus, &rule.Locked, &lockedAt, &created)
	if err != nil {
		return rule, err
	}

	rule.ID = payroll.RuleID(id)
	if rule.EffectiveMonth, err = payroll.ParseMonth(month); err != nil {
		return rule, fmt.Errorf("failed to scan rule: %w", err)
	}
	rule.Tier1to5 = parseMoney(t1)
	rule.Tier6to10 = parseMoney(t2)
	rule.Tier11to15 = parseMoney(t3)
	rule.Tier16Plus = parseMoney(t4)
	rule.SalesBonusUnit = parseMoney(bonus)
	if lockedAt.Valid && lockedAt.String != "" {
		rule.LockedAt, _ = time.Parse(time.RFC3339Nano, lockedAt.String)
	}
	rule.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return rule, nil
}

// =============================================================================
// INSTRUCTOR STORE (payroll.InstructorDirectory)
// =============================================================================

// SaveInstructor inserts or updates an instructor.
func (s *Store) SaveInstructor(ctx context.Context, inst payroll.Instructor) error {
	query := `
		INSERT INTO instructors (id, name, email, phone, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone
	`

	createdAt := inst.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, query,
		string(inst.ID), inst.Name, inst.Email, inst.Phone,
		createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetInstructor retrieves an instructor by ID.
func (s *Store) GetInstructor(ctx context.Context, id payroll.InstructorID) (payroll.Instructor, bool, error) {
	var inst payroll.Instructor
	var email, phone sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, phone, created_at FROM instructors WHERE id = ?",
		string(id),
	).Scan(&inst.ID, &inst.Name, &email, &phone, &createdAt)

	if err == sql.ErrNoRows {
		return payroll.Instructor{}, false, nil
	}
	if err != nil {
		return payroll.Instructor{}, false, err
	}

	inst.Email = email.String
	inst.Phone = phone.String
	inst.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return inst, true, nil
}

// ListInstructors returns the roster ordered by name.
func (s *Store) ListInstructors(ctx context.Context) ([]payroll.Instructor, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, phone, created_at FROM instructors ORDER BY name, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instructors []payroll.Instructor
	for rows.Next() {
		var inst payroll.Instructor
		var email, phone sql.NullString
		var createdAt string
		if err := rows.Scan(&inst.ID, &inst.Name, &email, &phone, &createdAt); err != nil {
			return nil, err
		}
		inst.Email = email.String
		inst.Phone = phone.String
		inst.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		instructors = append(instructors, inst)
	}
	return instructors, rows.Err()
}

// DeleteInstructor removes an instructor from the roster. Their records and
// past summaries stay; the next recalculation drops the summaries.
func (s *Store) DeleteInstructor(ctx context.Context, id payroll.InstructorID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM instructors WHERE id = ?", string(id))
	return err
}

// =============================================================================
// COURSE STORE
// =============================================================================

func (s *Store) SaveCourse(ctx context.Context, c payroll.Course) error {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description
	`, string(c.ID), c.Name, c.Description, createdAt.UTC().Format(time.RFC3339))
	return err
}

func (s *Store) ListCourses(ctx context.Context) ([]payroll.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, created_at FROM courses ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []payroll.Course
	for rows.Next() {
		var c payroll.Course
		var desc sql.NullString
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &desc, &createdAt); err != nil {
			return nil, err
		}
		c.Description = desc.String
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// =============================================================================
// RECORD STORES (payroll.AttendanceStore, payroll.SalesStore)
// =============================================================================

// AddAttendance inserts an attendance record. Records are never updated.
func (s *Store) AddAttendance(ctx context.Context, rec payroll.AttendanceRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendances (id, instructor_id, course_id, date, student_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.InstructorID), string(rec.CourseID), rec.Date.String(),
		rec.StudentCount, createdAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to add attendance: %w", err)
	}
	return nil
}

// FindAttendance returns an instructor's records in [from, to], by date.
func (s *Store) FindAttendance(ctx context.Context, id payroll.InstructorID, from, to payroll.Date) ([]payroll.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instructor_id, course_id, date, student_count, created_at
		FROM attendances
		WHERE instructor_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, created_at ASC, id ASC
	`, string(id), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []payroll.AttendanceRecord
	for rows.Next() {
		var (
			rec             payroll.AttendanceRecord
			date, createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.InstructorID, &rec.CourseID, &date, &rec.StudentCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		if rec.Date, err = payroll.ParseDate(date); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AddSales inserts a sales record. Records are never updated.
func (s *Store) AddSales(ctx context.Context, rec payroll.SalesRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales (id, instructor_id, date, product, quantity, unit_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.InstructorID), rec.Date.String(), rec.Product, rec.Quantity,
		rec.UnitPrice.String(), createdAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to add sale: %w", err)
	}
	return nil
}

// FindSales returns an instructor's sales in [from, to], by date.
func (s *Store) FindSales(ctx context.Context, id payroll.InstructorID, from, to payroll.Date) ([]payroll.SalesRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instructor_id, date, product, quantity, unit_price, created_at
		FROM sales
		WHERE instructor_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, created_at ASC, id ASC
	`, string(id), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var records []payroll.SalesRecord
	for rows.Next() {
		var (
			rec                        payroll.SalesRecord
			date, unitPrice, createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.InstructorID, &date, &rec.Product, &rec.Quantity, &unitPrice, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		if rec.Date, err = payroll.ParseDate(date); err != nil {
			return nil, err
		}
		rec.UnitPrice = parseMoney(unitPrice)
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// SUMMARY STORE (payroll.SummaryStore)
// =============================================================================

// ReplaceMonthSummaries deletes the month's rows and inserts the new set in
// one transaction.
func (s *Store) ReplaceMonthSummaries(ctx context.Context, month payroll.Month, summaries []payroll.MonthlyPayrollSummary) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM monthly_payroll WHERE month = ?", month.String()); err != nil {
		return fmt.Errorf("failed to clear summaries: %w", err)
	}

	for _, sum := range summaries {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO monthly_payroll
			(month, instructor_id, instructor_name, class_count, student_count,
			 attendance_pay, sales_bonus, total_pay)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, month.String(), string(sum.InstructorID), sum.InstructorName,
			sum.ClassCount, sum.StudentCount,
			sum.AttendancePay.String(), sum.SalesBonus.String(), sum.TotalPay.String())
		if err != nil {
			return fmt.Errorf("failed to insert summary for %s: %w", sum.InstructorID, err)
		}
	}

	return sqlTx.Commit()
}

// FindSummaries returns the month's summaries ordered by instructor ID.
func (s *Store) FindSummaries(ctx context.Context, month payroll.Month) ([]payroll.MonthlyPayrollSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT month, instructor_id, instructor_name, class_count, student_count,
		       attendance_pay, sales_bonus, total_pay
		FROM monthly_payroll
		WHERE month = ?
		ORDER BY instructor_id ASC
	`, month.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []payroll.MonthlyPayrollSummary
	for rows.Next() {
		var (
			sum                     payroll.MonthlyPayrollSummary
			m, attPay, bonus, total string
		)
		if err := rows.Scan(&m, &sum.InstructorID, &sum.InstructorName, &sum.ClassCount,
			&sum.StudentCount, &attPay, &bonus, &total); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		if sum.Month, err = payroll.ParseMonth(m); err != nil {
			return nil, err
		}
		sum.AttendancePay = parseMoney(attPay)
		sum.SalesBonus = parseMoney(bonus)
		sum.TotalPay = parseMoney(total)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// SummaryMonths lists months with stored summaries, newest first.
func (s *Store) SummaryMonths(ctx context.Context) ([]payroll.Month, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT month FROM monthly_payroll ORDER BY month DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var months []payroll.Month
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		month, err := payroll.ParseMonth(m)
		if err != nil {
			return nil, err
		}
		months = append(months, month)
	}
	return months, rows.Err()
}

// =============================================================================
// SETTINGS STORE (payroll.SettingsStore)
// =============================================================================

func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// SetSettings upserts all values in one transaction.
func (s *Store) SetSettings(ctx context.Context, values map[string]string) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for k, v := range values {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, k, v, now)
		if err != nil {
			return fmt.Errorf("failed to set %s: %w", k, err)
		}
	}
	return sqlTx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func parseMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
