package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/iliyamo/learn-connect/internal/model"
	"github.com/iliyamo/learn-connect/internal/utils"
)

const mysqlDuplicateEntry = 1062

const userColumns = "id,full_name,email,password_hash,phone,avatar,school,course," +
	"profile_completed,is_verified,verification_code,verification_code_expires,created_at,updated_at"

// NewUser carries the registration input. Password is plaintext and is
// hashed by Create; it is never persisted or logged.
type NewUser struct {
	FullName string
	Email    string
	Password string
	Phone    string
	Verified bool
	Pending  *model.PendingCode
}

// UserRepo is the credential store over the `users` table. It owns password
// hashing and maintains created_at/updated_at on every write.
type UserRepo struct {
	DB   *sql.DB
	cost int
	now  func() time.Time
}

func NewUserRepo(db *sql.DB, bcryptCost int) *UserRepo {
	return &UserRepo{DB: db, cost: bcryptCost, now: time.Now}
}

// NormalizeEmail trims and lower-cases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepo) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

// Create hashes the password, inserts the account and returns it.
func (r *UserRepo) Create(ctx context.Context, in NewUser) (model.User, error) {
	if in.Verified && in.Pending != nil {
		return model.User{}, ErrPendingWhileVerified
	}
	hash, err := utils.HashPassword(in.Password, r.cost)
	if err != nil {
		return model.User{}, err
	}
	now := r.timestamp()
	u := model.User{
		ID:           uuid.NewString(),
		FullName:     strings.TrimSpace(in.FullName),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Verified:     in.Verified,
		Pending:      in.Pending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	code, expires := pendingArgs(u.Pending)
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id,full_name,email,password_hash,phone,is_verified,verification_code,verification_code_expires,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.FullName, u.Email, u.PasswordHash, u.Phone, u.Verified, code, expires, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// Save persists the mutable columns of u and returns it with a fresh
// UpdatedAt. Email and password hash are never rewritten here.
func (r *UserRepo) Save(ctx context.Context, u model.User) (model.User, error) {
	if u.Verified && u.Pending != nil {
		return model.User{}, ErrPendingWhileVerified
	}
	u.UpdatedAt = r.timestamp()
	code, expires := pendingArgs(u.Pending)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET full_name=?,phone=?,avatar=?,school=?,course=?,profile_completed=?,is_verified=?,verification_code=?,verification_code_expires=?,updated_at=? WHERE id=?",
		u.FullName, u.Phone, nullString(u.Avatar), nullString(u.School), nullString(u.Course),
		u.ProfileCompleted, u.Verified, code, expires, u.UpdatedAt, u.ID)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// VerifyCredential reports whether plain matches the stored hash of u.
func (r *UserRepo) VerifyCredential(u model.User, plain string) bool {
	return utils.VerifyPassword(u.PasswordHash, plain)
}

// BurnCredentialCheck performs a comparison against a dummy hash of the
// configured cost and always reports false. Used when the account does not
// exist so that the lookup costs as much as a wrong password.
func (r *UserRepo) BurnCredentialCheck(plain string) bool {
	_ = utils.VerifyPassword(utils.DummyHash(r.cost), plain)
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u       model.User
		avatar  sql.NullString
		school  sql.NullString
		course  sql.NullString
		code    sql.NullString
		expires sql.NullTime
	)
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Phone,
		&avatar, &school, &course, &u.ProfileCompleted, &u.Verified,
		&code, &expires, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Avatar, u.School, u.Course = avatar.String, school.String, course.String
	if code.Valid && expires.Valid {
		u.Pending = &model.PendingCode{Code: code.String, ExpiresAt: expires.Time}
	}
	return u, nil
}

func pendingArgs(p *model.PendingCode) (sql.NullString, sql.NullTime) {
	if p == nil {
		return sql.NullString{}, sql.NullTime{}
	}
	return sql.NullString{String: p.Code, Valid: true}, sql.NullTime{Time: p.ExpiresAt.UTC(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
