package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/supplydesk/internal/core/domain"
	"github.com/rl1809/supplydesk/internal/port"
)

// dialect holds what differs between the SQL engines we run on. Queries use
// "?" placeholders, which both MySQL and SQLite accept.
type dialect struct {
	name             string
	schema           string
	isDuplicate      func(error) bool
	isForeignKeyMiss func(error) bool
}

// SQLAdapter persists the ledger, requests and status logs in a relational
// database.
type SQLAdapter struct {
	db      *sql.DB
	dialect dialect
}

func (m *SQLAdapter) DB() *sql.DB {
	return m.db
}

func (m *SQLAdapter) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

// Migrate creates missing tables. It is safe to run on every start.
func (m *SQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(m.dialect.schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply %s schema: %w", m.dialect.name, err)
		}
	}
	return nil
}

// stockStatusCase renders the quantity-to-status rule as SQL for expr.
func stockStatusCase(expr string) string {
	return fmt.Sprintf("CASE WHEN %[1]s <= 0 THEN '%[2]s' WHEN %[1]s <= %[3]d THEN '%[4]s' ELSE '%[5]s' END",
		expr,
		domain.StockStatusOutOfStock,
		domain.LowStockThreshold,
		domain.StockStatusLowStock,
		domain.StockStatusInStock,
	)
}

// The status column is assigned before quantity: MySQL evaluates SET
// assignments left to right against already-updated values, SQLite against
// the old row, and this order gives both the same result.
var (
	reserveStockSQL = `
		UPDATE inventory
		SET status = ` + stockStatusCase("quantity - ?") + `, quantity = quantity - ?
		WHERE item_name = ? AND status = '` + string(domain.StockStatusInStock) + `' AND quantity >= ?`

	releaseStockSQL = `
		UPDATE inventory
		SET status = ` + stockStatusCase("quantity + ?") + `, quantity = quantity + ?
		WHERE item_name = ?`

	restockSQL = `
		UPDATE inventory
		SET quantity = quantity + ?, status = '` + string(domain.StockStatusInStock) + `'
		WHERE item_name = ?`

	setQuantitySQL = `
		UPDATE inventory
		SET status = ` + stockStatusCase("?") + `, quantity = ?
		WHERE id = ?`
)

func (m *SQLAdapter) RegisterItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory (item_name, quantity, status) VALUES (?, ?, ?)`,
		item.Name, item.Quantity, item.Status,
	)
	if err != nil {
		if m.dialect.isDuplicate(err) {
			return domain.InventoryItem{}, port.ErrDuplicate
		}
		return domain.InventoryItem{}, fmt.Errorf("insert inventory: %w", err)
	}

	item.ID, err = result.LastInsertId()
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("inventory id: %w", err)
	}
	return item, nil
}

func (m *SQLAdapter) GetItem(ctx context.Context, id int64) (domain.InventoryItem, error) {
	return m.getItem(ctx, "id = ?", id)
}

func (m *SQLAdapter) GetItemByName(ctx context.Context, name string) (domain.InventoryItem, error) {
	return m.getItem(ctx, "item_name = ?", name)
}

func (m *SQLAdapter) getItem(ctx context.Context, where string, arg any) (domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := m.db.QueryRowContext(ctx, `
		SELECT id, item_name, quantity, status
		FROM inventory WHERE `+where, arg,
	).Scan(&item.ID, &item.Name, &item.Quantity, &item.Status)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.InventoryItem{}, port.ErrNotFound
	}
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("query inventory: %w", err)
	}
	return item, nil
}

func (m *SQLAdapter) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, item_name, quantity, status
		FROM inventory ORDER BY item_name, id`)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.Status); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *SQLAdapter) ReserveStock(ctx context.Context, name string, quantity int) (bool, error) {
	result, err := m.db.ExecContext(ctx, reserveStockSQL, quantity, quantity, quantity, name, quantity)
	if err != nil {
		return false, fmt.Errorf("reserve inventory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve inventory: %w", err)
	}
	return rows == 1, nil
}

func (m *SQLAdapter) ReleaseStock(ctx context.Context, name string, quantity int) error {
	result, err := m.db.ExecContext(ctx, releaseStockSQL, quantity, quantity, quantity, name)
	if err != nil {
		return fmt.Errorf("release inventory: %w", err)
	}
	return m.checkItemUpdated(ctx, result, "item_name = ?", name)
}

func (m *SQLAdapter) RestockItem(ctx context.Context, name string, quantity int) (bool, error) {
	result, err := m.db.ExecContext(ctx, restockSQL, quantity, name)
	if err != nil {
		return false, fmt.Errorf("restock inventory: %w", err)
	}

	err = m.checkItemUpdated(ctx, result, "item_name = ?", name)
	if errors.Is(err, port.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *SQLAdapter) SetItemQuantity(ctx context.Context, id int64, quantity int) error {
	result, err := m.db.ExecContext(ctx, setQuantitySQL, quantity, quantity, quantity, id)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}
	return m.checkItemUpdated(ctx, result, "id = ?", id)
}

// checkItemUpdated turns a zero row count into ErrNotFound. MySQL reports
// matched-but-unchanged rows as zero, so the row is looked up before giving
// up.
func (m *SQLAdapter) checkItemUpdated(ctx context.Context, result sql.Result, where string, arg any) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}
	_, err = m.getItem(ctx, where, arg)
	return err
}

const requestColumns = `id, user_id, role, message, auto_tag, status, submitted_time, fulfilled_time,
	vendor_name, solution, estimated_delivery, forwarded_to_production,
	product_name, product_quantity, product_new`

func (m *SQLAdapter) CreateRequest(ctx context.Context, req domain.Request, entry domain.StatusLogEntry) (domain.Request, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Request{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	productName, productQty, productNew := productColumns(req.Product)
	result, err := tx.ExecContext(ctx, `
		INSERT INTO requests (user_id, role, message, auto_tag, status, submitted_time, fulfilled_time,
			vendor_name, solution, estimated_delivery, forwarded_to_production,
			product_name, product_quantity, product_new)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.SubmitterID, req.SubmitterRole, req.Message, req.Tag, req.Status, req.SubmittedAt,
		nullTime(req.FulfilledAt), nullString(req.VendorName), nullString(req.VendorSolution),
		nullString(req.EstimatedDelivery), boolInt(req.ForwardedToProduction),
		productName, productQty, productNew,
	)
	if err != nil {
		if m.dialect.isForeignKeyMiss(err) {
			return domain.Request{}, fmt.Errorf("%w: user %d", port.ErrNotFound, req.SubmitterID)
		}
		return domain.Request{}, fmt.Errorf("insert request: %w", err)
	}

	req.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Request{}, fmt.Errorf("request id: %w", err)
	}

	entry.RequestID = req.ID
	if err := insertStatusLog(ctx, tx, entry); err != nil {
		return domain.Request{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Request{}, fmt.Errorf("commit: %w", err)
	}
	return req, nil
}

func (m *SQLAdapter) UpdateRequest(ctx context.Context, req domain.Request, entry domain.StatusLogEntry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM requests WHERE id = ?`, req.ID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return port.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query request: %w", err)
	}

	productName, productQty, productNew := productColumns(req.Product)
	_, err = tx.ExecContext(ctx, `
		UPDATE requests
		SET message = ?, auto_tag = ?, status = ?, fulfilled_time = ?, vendor_name = ?, solution = ?,
			estimated_delivery = ?, forwarded_to_production = ?,
			product_name = ?, product_quantity = ?, product_new = ?
		WHERE id = ?`,
		req.Message, req.Tag, req.Status, nullTime(req.FulfilledAt),
		nullString(req.VendorName), nullString(req.VendorSolution),
		nullString(req.EstimatedDelivery), boolInt(req.ForwardedToProduction),
		productName, productQty, productNew,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}

	entry.RequestID = req.ID
	if err := insertStatusLog(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}

func insertStatusLog(ctx context.Context, tx *sql.Tx, entry domain.StatusLogEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO status_logs (request_id, status, logged_at) VALUES (?, ?, ?)`,
		entry.RequestID, entry.Status, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert status log: %w", err)
	}
	return nil
}

func (m *SQLAdapter) GetRequest(ctx context.Context, id int64) (domain.Request, error) {
	row := m.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Request{}, port.ErrNotFound
	}
	if err != nil {
		return domain.Request{}, fmt.Errorf("query request: %w", err)
	}
	return req, nil
}

func (m *SQLAdapter) ListRequests(ctx context.Context, filter port.RequestFilter) ([]domain.Request, error) {
	var (
		where []string
		args  []any
	)
	if filter.SubmitterID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, filter.SubmitterID)
	}
	if len(filter.Tags) > 0 {
		where = append(where, "auto_tag IN ("+placeholders(len(filter.Tags))+")")
		for _, tag := range filter.Tags {
			args = append(args, string(tag))
		}
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, status := range filter.Statuses {
			args = append(args, string(status))
		}
	}
	if filter.Forwarded != nil {
		where = append(where, "forwarded_to_production = ?")
		args = append(args, boolInt(*filter.Forwarded))
	}

	query := `SELECT ` + requestColumns + ` FROM requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if filter.NewestFirst {
		query += ` ORDER BY submitted_time DESC, id DESC`
	} else {
		query += ` ORDER BY submitted_time ASC, id ASC`
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var reqs []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (m *SQLAdapter) ListStatusLog(ctx context.Context, requestID int64) ([]domain.StatusLogEntry, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, request_id, status, logged_at
		FROM status_logs WHERE request_id = ?
		ORDER BY logged_at, id`, requestID)
	if err != nil {
		return nil, fmt.Errorf("query status logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.StatusLogEntry
	for rows.Next() {
		var e domain.StatusLogEntry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Status, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan status log: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (m *SQLAdapter) EnsureUser(ctx context.Context, username string, role domain.Role) (domain.User, error) {
	u, err := m.userByName(ctx, username)
	if !errors.Is(err, port.ErrNotFound) {
		return u, err
	}

	result, err := m.db.ExecContext(ctx, `INSERT INTO users (username, role) VALUES (?, ?)`, username, role)
	if err != nil {
		if m.dialect.isDuplicate(err) {
			return m.userByName(ctx, username)
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.User{}, fmt.Errorf("user id: %w", err)
	}
	return domain.User{ID: id, Username: username, Role: role}, nil
}

func (m *SQLAdapter) userByName(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := m.db.QueryRowContext(ctx, `SELECT id, username, role FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, port.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (m *SQLAdapter) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := m.db.QueryRowContext(ctx, `SELECT id, username, role FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, port.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (domain.Request, error) {
	var (
		req         domain.Request
		fulfilled   sql.NullTime
		vendor      sql.NullString
		solution    sql.NullString
		estimate    sql.NullString
		forwarded   int
		productName sql.NullString
		productQty  sql.NullInt64
		productNew  int
	)
	err := row.Scan(&req.ID, &req.SubmitterID, &req.SubmitterRole, &req.Message, &req.Tag, &req.Status,
		&req.SubmittedAt, &fulfilled, &vendor, &solution, &estimate, &forwarded,
		&productName, &productQty, &productNew)
	if err != nil {
		return domain.Request{}, err
	}

	req.SubmittedAt = req.SubmittedAt.UTC()
	if fulfilled.Valid {
		t := fulfilled.Time.UTC()
		req.FulfilledAt = &t
	}
	req.VendorName = vendor.String
	req.VendorSolution = solution.String
	req.EstimatedDelivery = estimate.String
	req.ForwardedToProduction = forwarded != 0
	if productName.Valid {
		req.Product = &domain.ProductReference{
			Name:     productName.String,
			Quantity: int(productQty.Int64),
			New:      productNew != 0,
		}
	}
	return req, nil
}

func productColumns(ref *domain.ProductReference) (sql.NullString, sql.NullInt64, int) {
	if ref == nil {
		return sql.NullString{}, sql.NullInt64{}, 0
	}
	return sql.NullString{String: ref.Name, Valid: true},
		sql.NullInt64{Int64: int64(ref.Quantity), Valid: true},
		boolInt(ref.New)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
