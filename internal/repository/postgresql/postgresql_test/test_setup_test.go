package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/fragranza-olio/ojt-backend/internal/domain/user"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/database"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/migrate"
	"github.com/fragranza-olio/ojt-backend/migrations"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestDatabaseSetup holds a migrated, empty test database.
type TestDatabaseSetup struct {
	DB         *database.DB
	Supervisor user.User
	Trainee    user.User
}

// NewTestDatabase connects to TEST_DATABASE_URL, applies migrations and seeds
// one supervisor with one trainee. The test is skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	sqlDB, err := migrate.Open(dsn)
	require.NoError(t, err)
	all, err := migrate.Load(migrations.FS)
	require.NoError(t, err)
	_, err = migrate.New(sqlDB, nil).Up(ctx, all)
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	setup := &TestDatabaseSetup{DB: db}
	require.NoError(t, setup.TruncateAllTables(ctx))

	setup.Supervisor = setup.createUser(t, "supervisor@fragranza.test", user.RoleOJTSupervisor, nil)
	setup.Trainee = setup.createUser(t, "trainee@fragranza.test", user.RoleOJTTrainee, &setup.Supervisor.ID)
	return setup
}

// TruncateAllTables removes every row from the application tables.
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"notifications",
		"timesheet_entries",
		"timesheets",
		"late_permission_requests",
		"attendance_records",
		"users",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *TestDatabaseSetup) createUser(t *testing.T, email string, role user.Role, supervisorID *string) user.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	u := user.User{Email: email, FullName: email, Role: role, SupervisorID: supervisorID}
	hash := string(hashed)
	u.PasswordHash = &hash

	err = s.DB.QueryRow(context.Background(), `
		INSERT INTO users (email, password_hash, full_name, role, supervisor_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, u.Email, u.PasswordHash, u.FullName, u.Role, u.SupervisorID).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	require.NoError(t, err)
	return u
}
